package config_test

import (
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/signalgp/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Config", func() {
	It("validates the defaults", func() {
		Expect(config.Default().Validate()).To(Succeed())
	})

	It("rejects a thread space smaller than the active-thread limit", func() {
		c := config.Default()
		c.MaxThreadSpace = 1
		c.MaxActiveThreads = 64
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("round-trips through Save and Load", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "config.json")

		c := config.Default()
		c.MaxActiveThreads = 8
		c.UseThreadPriority = false
		Expect(c.Save(path)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(c))
	})

	It("clones independently of the original", func() {
		c := config.Default()
		clone := c.Clone()
		clone.MaxActiveThreads = 1
		Expect(c.MaxActiveThreads).To(Equal(64))
	})
})
