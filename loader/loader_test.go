package loader_test

import (
	"bytes"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/signalgp/loader"
	"github.com/sarchlab/signalgp/program"
	"github.com/sarchlab/signalgp/tag"
)

func TestLoader(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Loader Suite")
}

func bt(b byte) tag.Tag { return tag.NewBitTag(8, []byte{b}) }

// fakeTag satisfies tag.Tag but is not a tag.BitTag, to exercise Write's
// unsupported-type error path.
type fakeTag struct{}

func (fakeTag) Equal(tag.Tag) bool          { return false }
func (fakeTag) Less(tag.Tag) bool           { return false }
func (fakeTag) Hash() uint64                { return 0 }
func (fakeTag) Similarity(tag.Tag) float64 { return 0 }

var _ = Describe("loader", func() {
	It("round-trips a program through Write/Read", func() {
		prog := program.New([]program.Instruction{
			{OpcodeID: 1, Tags: []tag.Tag{bt(5)}},
			{OpcodeID: 2, Args: []program.Arg{1, -2, 3}},
			{OpcodeID: 3, Args: []program.Arg{0}, Tags: []tag.Tag{bt(9), bt(200)}},
		})

		var buf bytes.Buffer
		Expect(loader.Write(&buf, prog)).To(Succeed())

		got, err := loader.Read(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Equal(prog)).To(BeTrue())
	})

	It("round-trips through Save/Load on disk", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "prog.sgp")

		prog := program.New([]program.Instruction{
			{OpcodeID: 7, Tags: []tag.Tag{bt(3)}},
		})
		Expect(loader.Save(path, prog)).To(Succeed())

		got, err := loader.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Equal(prog)).To(BeTrue())
	})

	It("rejects a bad magic number", func() {
		_, err := loader.Read(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 0}))
		Expect(err).To(HaveOccurred())
	})

	It("rejects a tag type other than BitTag", func() {
		prog := program.New([]program.Instruction{
			{OpcodeID: 1, Tags: []tag.Tag{fakeTag{}}},
		})
		var buf bytes.Buffer
		Expect(loader.Write(&buf, prog)).To(HaveOccurred())
	})
})
