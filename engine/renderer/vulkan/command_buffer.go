package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lovevk/engine/core"
	"github.com/spaghettifunk/lovevk/engine/renderer/resource"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

// VulkanCommandBuffer records image barriers and buffer-to-image copies.
// It satisfies resource.Recorder.
type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	State  VulkanCommandBufferState
}

var _ resource.Recorder = (*VulkanCommandBuffer)(nil)

func allocateCommandBuffer(device *VulkanDevice, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	cb := &VulkanCommandBuffer{
		State: COMMAND_BUFFER_STATE_NOT_ALLOCATED,
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              vk.CommandBufferLevelPrimary,
	}

	handles := make([]vk.CommandBuffer, 1)
	if err := resultError(core.ErrDeviceAllocation, "vkAllocateCommandBuffers", vk.AllocateCommandBuffers(device.LogicalDevice, &allocateInfo, handles)); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	cb.Handle = handles[0]
	cb.State = COMMAND_BUFFER_STATE_READY
	return cb, nil
}

func (v *VulkanCommandBuffer) Begin(isSingleUse bool) error {
	beginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}

	if err := resultError(core.ErrSubmission, "vkBeginCommandBuffer", vk.BeginCommandBuffer(v.Handle, beginInfo)); err != nil {
		core.LogError(err.Error())
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if err := resultError(core.ErrSubmission, "vkEndCommandBuffer", vk.EndCommandBuffer(v.Handle)); err != nil {
		core.LogError(err.Error())
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

// Submit hands the recorded buffer to the queue, signalling fence on completion.
func (v *VulkanCommandBuffer) Submit(device *VulkanDevice, fence *VulkanFence) error {
	if v.State != COMMAND_BUFFER_STATE_RECORDING_ENDED {
		return fmt.Errorf("%w: command buffer submitted before End", core.ErrSubmission)
	}
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{v.Handle},
	}
	handle := vk.NullFence
	if fence != nil {
		handle = fence.Handle
	}
	err := device.Locks.SafeCall(QueueManagement, func() error {
		return resultError(core.ErrSubmission, "vkQueueSubmit", vk.QueueSubmit(device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, handle))
	})
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
	return nil
}

func (v *VulkanCommandBuffer) PipelineBarrier(src, dst resource.Stage, barrier resource.ImageBarrier) {
	img := mustVulkanImage(barrier.Image)
	imageBarrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vulkanAccess(barrier.SrcAccess),
		DstAccessMask:       vulkanAccess(barrier.DstAccess),
		OldLayout:           vulkanLayout(barrier.OldLayout),
		NewLayout:           vulkanLayout(barrier.NewLayout),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   barrier.BaseMipLevel,
			LevelCount:     barrier.LevelCount,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdPipelineBarrier(v.Handle, vulkanStages(src), vulkanStages(dst), 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{imageBarrier})
}

func (v *VulkanCommandBuffer) CopyBufferToImage(buffer resource.StagingBuffer, image resource.DeviceImage, layout resource.Layout, region resource.BufferImageCopy) {
	buf, ok := buffer.(*VulkanBuffer)
	if !ok {
		panic(fmt.Sprintf("vulkan: staging buffer of type %T was not created by this backend", buffer))
	}
	img := mustVulkanImage(image)

	copyRegion := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       region.MipLevel,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageExtent: vk.Extent3D{
			Width:  region.Width,
			Height: region.Height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(v.Handle, buf.Handle, img.Handle, vulkanLayout(layout), 1, []vk.BufferImageCopy{copyRegion})
}

func mustVulkanImage(image resource.DeviceImage) *VulkanImage {
	img, ok := image.(*VulkanImage)
	if !ok {
		panic(fmt.Sprintf("vulkan: image of type %T was not created by this backend", image))
	}
	return img
}
