package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lovevk/engine/core"
	"github.com/spaghettifunk/lovevk/engine/renderer/resource"
)

const wholeSize = vk.DeviceSize(^uint64(0))

// VulkanBuffer is a host-visible transfer source.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory

	size     uint64
	coherent bool
	device   *VulkanDevice
}

// CreateStagingBuffer allocates size bytes of host-visible memory. Cached memory
// is preferred; coherent memory is used when no cached type fits.
func (d *VulkanDevice) CreateStagingBuffer(size uint64) (resource.StagingBuffer, error) {
	buf := &VulkanBuffer{size: size, device: d}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := resultError(core.ErrDeviceAllocation, "vkCreateBuffer", vk.CreateBuffer(d.LogicalDevice, &bufferCreateInfo, d.Allocator, &handle)); err != nil {
		return nil, err
	}
	buf.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.LogicalDevice, buf.Handle, &requirements)
	requirements.Deref()

	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	memoryType := d.FindMemoryIndex(requirements.MemoryTypeBits, hostVisible|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit))
	if memoryType == -1 {
		memoryType = d.FindMemoryIndex(requirements.MemoryTypeBits, hostVisible|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
		buf.coherent = true
	} else {
		d.Memory.MemoryTypes[memoryType].Deref()
		buf.coherent = d.Memory.MemoryTypes[memoryType].PropertyFlags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit) != 0
	}
	if memoryType == -1 {
		buf.Release()
		return nil, fmt.Errorf("%w: no host-visible memory type for staging buffer", core.ErrDeviceAllocation)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	err := d.Locks.SafeCall(MemoryManagement, func() error {
		var memory vk.DeviceMemory
		if err := resultError(core.ErrDeviceAllocation, "vkAllocateMemory", vk.AllocateMemory(d.LogicalDevice, &allocateInfo, d.Allocator, &memory)); err != nil {
			return err
		}
		buf.Memory = memory
		return resultError(core.ErrDeviceAllocation, "vkBindBufferMemory", vk.BindBufferMemory(d.LogicalDevice, buf.Handle, buf.Memory, 0))
	})
	if err != nil {
		buf.Release()
		return nil, err
	}
	return buf, nil
}

func (b *VulkanBuffer) Size() uint64 {
	return b.size
}

// Write copies data to the start of the buffer and makes it visible to the device.
func (b *VulkanBuffer) Write(data []byte) error {
	if uint64(len(data)) > b.size {
		return fmt.Errorf("%w: %d bytes do not fit a %d byte staging buffer", core.ErrDeviceAllocation, len(data), b.size)
	}
	if len(data) == 0 {
		return nil
	}

	var mapped unsafe.Pointer
	if err := resultError(core.ErrDeviceAllocation, "vkMapMemory", vk.MapMemory(b.device.LogicalDevice, b.Memory, 0, wholeSize, 0, &mapped)); err != nil {
		return err
	}
	vk.Memcopy(mapped, data)

	if !b.coherent {
		rng := vk.MappedMemoryRange{
			SType:  vk.StructureTypeMappedMemoryRange,
			Memory: b.Memory,
			Offset: 0,
			Size:   wholeSize,
		}
		if err := resultError(core.ErrDeviceAllocation, "vkFlushMappedMemoryRanges", vk.FlushMappedMemoryRanges(b.device.LogicalDevice, 1, []vk.MappedMemoryRange{rng})); err != nil {
			vk.UnmapMemory(b.device.LogicalDevice, b.Memory)
			return err
		}
	}
	vk.UnmapMemory(b.device.LogicalDevice, b.Memory)
	return nil
}

// Release frees the buffer and its memory. Safe to call more than once.
func (b *VulkanBuffer) Release() {
	if b.device == nil {
		return
	}
	if b.Memory != nil {
		vk.FreeMemory(b.device.LogicalDevice, b.Memory, b.device.Allocator)
		b.Memory = nil
	}
	if b.Handle != nil {
		vk.DestroyBuffer(b.device.LogicalDevice, b.Handle, b.device.Allocator)
		b.Handle = nil
	}
}
