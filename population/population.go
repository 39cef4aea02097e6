// Package population runs a fixed collection of independent VM instances
// concurrently, one goroutine per instance, and collects per-instance
// results. Nothing here lets two instances observe each other's state —
// the only sharing is the errgroup.Group that waits for all of them.
package population

import (
	"context"

	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/signalgp/vm"
)

// Member is one VM entered into a Population, tagged with a stable run id
// used to correlate its trace output across a multi-run experiment.
type Member struct {
	RunID xid.ID
	VM    *vm.VM
}

// Result is one member's outcome after Run completes.
type Result struct {
	RunID     xid.ID
	TickCount uint64
}

// Population is a fixed set of VM instances run together.
type Population struct {
	members []Member
}

// New wraps vms into a Population, minting a fresh run id for each.
func New(vms []*vm.VM) *Population {
	members := make([]Member, len(vms))
	for i, v := range vms {
		members[i] = Member{RunID: xid.New(), VM: v}
	}
	return &Population{members: members}
}

// Members returns the population's members in the order they were added.
func (p *Population) Members() []Member {
	return p.members
}

// Run advances every member by ticks ticks concurrently, one goroutine per
// member, and returns each member's result in input order. Each member
// checks ctx once, just before its VM.Run; VM.Run does not observe ctx, so a
// member already running finishes its ticks. If any member found ctx
// canceled, Run returns that error and no results; a cancel that comes after
// every member has passed its check does not affect the result.
func (p *Population) Run(ctx context.Context, ticks int) ([]Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]Result, len(p.members))

	for i, m := range p.members {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m.VM.Run(ticks)
			results[i] = Result{RunID: m.RunID, TickCount: m.VM.TickCount()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
