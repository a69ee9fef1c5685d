package vulkan

import "sync"

type LockGroup string

const (
	QueueManagement       LockGroup = "queue_management"
	MemoryManagement      LockGroup = "memory_management"
	CommandPoolManagement LockGroup = "command_pool_management"
)

// VulkanLockPool hands out one mutex per group of externally synchronized
// Vulkan objects.
type VulkanLockPool struct {
	locks map[LockGroup]*sync.Mutex
	mu    sync.Mutex // Protects access to the locks map
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{
		locks: make(map[LockGroup]*sync.Mutex),
	}
}

func (vs *VulkanLockPool) lockFor(group LockGroup) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if _, exists := vs.locks[group]; !exists {
		vs.locks[group] = &sync.Mutex{}
	}
	return vs.locks[group]
}

// SafeCall runs fn while holding the mutex for group.
func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := vs.lockFor(group)
	l.Lock()
	defer l.Unlock()

	return fn()
}
