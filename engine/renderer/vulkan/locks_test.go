package vulkan

import (
	"errors"
	"sync"
	"testing"

	. "github.com/onsi/gomega"
)

func TestLockPoolSerializesGroup(t *testing.T) {
	g := NewWithT(t)
	pool := NewVulkanLockPool()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.SafeCall(QueueManagement, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	g.Expect(counter).To(Equal(50))
}

func TestLockPoolReturnsCallbackError(t *testing.T) {
	g := NewWithT(t)
	pool := NewVulkanLockPool()
	boom := errors.New("boom")

	g.Expect(pool.SafeCall(MemoryManagement, func() error { return boom })).To(MatchError(boom))
	// The group is usable again after an error.
	g.Expect(pool.SafeCall(MemoryManagement, func() error { return nil })).To(Succeed())
}
