package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lovevk/engine/core"
	"github.com/spaghettifunk/lovevk/engine/renderer/resource"
)

// VulkanImage is a device-local 2D image with its backing memory.
type VulkanImage struct {
	Handle    vk.Image
	Memory    vk.DeviceMemory
	Format    vk.Format
	Width     uint32
	Height    uint32
	MipLevels uint32

	device *VulkanDevice
}

// CreateImage allocates an optimally tiled 2D image in device-local memory.
// Its mip levels all start in the undefined layout.
func (d *VulkanDevice) CreateImage(info resource.ImageInfo) (resource.DeviceImage, error) {
	img := &VulkanImage{
		Format:    vulkanFormat(info.Format),
		Width:     info.Width,
		Height:    info.Height,
		MipLevels: info.MipLevels,
		device:    d,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  info.Width,
			Height: info.Height,
			Depth:  1,
		},
		MipLevels:     info.MipLevels,
		ArrayLayers:   1,
		Format:        img.Format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vulkanUsage(info.Usage),
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var handle vk.Image
	if err := resultError(core.ErrDeviceAllocation, "vkCreateImage", vk.CreateImage(d.LogicalDevice, &imageCreateInfo, d.Allocator, &handle)); err != nil {
		return nil, err
	}
	img.Handle = handle

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.LogicalDevice, img.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType := d.FindMemoryIndex(memoryRequirements.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if memoryType == -1 {
		img.Destroy()
		return nil, fmt.Errorf("%w: required memory type not found for image %q", core.ErrDeviceAllocation, info.Name)
	}

	memoryAllocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	err := d.Locks.SafeCall(MemoryManagement, func() error {
		var memory vk.DeviceMemory
		if err := resultError(core.ErrDeviceAllocation, "vkAllocateMemory", vk.AllocateMemory(d.LogicalDevice, &memoryAllocateInfo, d.Allocator, &memory)); err != nil {
			return err
		}
		img.Memory = memory
		return resultError(core.ErrDeviceAllocation, "vkBindImageMemory", vk.BindImageMemory(d.LogicalDevice, img.Handle, img.Memory, 0))
	})
	if err != nil {
		img.Destroy()
		return nil, err
	}

	core.LogDebug("vulkan image %q created (%dx%d, %d mips)", info.Name, info.Width, info.Height, info.MipLevels)
	return img, nil
}

func (img *VulkanImage) Destroy() {
	if img.device == nil {
		return
	}
	if img.Memory != nil {
		vk.FreeMemory(img.device.LogicalDevice, img.Memory, img.device.Allocator)
		img.Memory = nil
	}
	if img.Handle != nil {
		vk.DestroyImage(img.device.LogicalDevice, img.Handle, img.device.Allocator)
		img.Handle = nil
	}
}
