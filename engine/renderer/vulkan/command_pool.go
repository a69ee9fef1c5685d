package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lovevk/engine/core"
	"github.com/spaghettifunk/lovevk/engine/renderer/frame"
)

// VulkanCommandPool owns the primary command buffers of one frame slot.
// Resetting the pool returns all of them to the initial state at once.
type VulkanCommandPool struct {
	Handle  vk.CommandPool
	device  *VulkanDevice
	buffers []*VulkanCommandBuffer
	used    int
}

var _ frame.CommandPool[*VulkanCommandBuffer] = (*VulkanCommandPool)(nil)

func NewVulkanCommandPool(device *VulkanDevice) (*VulkanCommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}
	var handle vk.CommandPool
	if err := resultError(core.ErrDeviceAllocation, "vkCreateCommandPool", vk.CreateCommandPool(device.LogicalDevice, &poolCreateInfo, device.Allocator, &handle)); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	return &VulkanCommandPool{Handle: handle, device: device}, nil
}

// CommandPoolFactory builds one pool per frame slot for a frame.CommandRing.
func CommandPoolFactory(device *VulkanDevice) frame.PoolFactory[*VulkanCommandBuffer] {
	return func(slot uint32) (frame.CommandPool[*VulkanCommandBuffer], error) {
		pool, err := NewVulkanCommandPool(device)
		if err != nil {
			return nil, err
		}
		core.LogDebug("command pool created for frame slot %d", slot)
		return pool, nil
	}
}

// AllocatePrimary hands out a buffer recycled by the last Reset when one is
// left, and allocates a new one otherwise.
func (p *VulkanCommandPool) AllocatePrimary() (*VulkanCommandBuffer, error) {
	if p.used < len(p.buffers) {
		cb := p.buffers[p.used]
		p.used++
		return cb, nil
	}
	var cb *VulkanCommandBuffer
	err := p.device.Locks.SafeCall(CommandPoolManagement, func() error {
		var err error
		cb, err = allocateCommandBuffer(p.device, p.Handle)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.buffers = append(p.buffers, cb)
	p.used++
	return cb, nil
}

func (p *VulkanCommandPool) Reset() error {
	if err := resultError(core.ErrSubmission, "vkResetCommandPool", vk.ResetCommandPool(p.device.LogicalDevice, p.Handle, 0)); err != nil {
		return err
	}
	for _, cb := range p.buffers {
		cb.State = COMMAND_BUFFER_STATE_READY
	}
	p.used = 0
	return nil
}

func (p *VulkanCommandPool) Destroy() {
	if p.Handle == nil {
		return
	}
	// Destroying the pool frees every buffer allocated from it.
	vk.DestroyCommandPool(p.device.LogicalDevice, p.Handle, p.device.Allocator)
	p.Handle = nil
	for _, cb := range p.buffers {
		cb.Handle = nil
		cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
	p.buffers = nil
	p.used = 0
}
