package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lovevk/engine/core"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool

	device *VulkanDevice
}

func NewFence(device *VulkanDevice, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
		device:     device,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var pFence vk.Fence
	if err := resultError(core.ErrDeviceAllocation, "vkCreateFence", vk.CreateFence(device.LogicalDevice, &fenceCreateInfo, device.Allocator, &pFence)); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	fence.Handle = pFence
	return fence, nil
}

func (vf *VulkanFence) Destroy() {
	if vf.Handle != vk.NullFence {
		vk.DestroyFence(vf.device.LogicalDevice, vf.Handle, vf.device.Allocator)
		vf.Handle = vk.NullFence
	}
	vf.IsSignaled = false
}

// Wait blocks until the fence is signaled or timeoutNs elapses.
func (vf *VulkanFence) Wait(timeoutNs uint64) error {
	if vf.IsSignaled {
		// If already signaled, do not wait.
		return nil
	}
	result := vk.WaitForFences(vf.device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
		return fmt.Errorf("%w: fence wait timed out", core.ErrFrameInFlight)
	default:
		err := resultError(core.ErrSubmission, "vkWaitForFences", result)
		core.LogError(err.Error())
		return err
	}
}

// Status polls the fence without blocking.
func (vf *VulkanFence) Status() bool {
	if vf.IsSignaled {
		return true
	}
	if vk.GetFenceStatus(vf.device.LogicalDevice, vf.Handle) == vk.Success {
		vf.IsSignaled = true
	}
	return vf.IsSignaled
}

func (vf *VulkanFence) Reset() error {
	if vf.IsSignaled {
		if err := resultError(core.ErrSubmission, "vkResetFences", vk.ResetFences(vf.device.LogicalDevice, 1, []vk.Fence{vf.Handle})); err != nil {
			core.LogError(err.Error())
			return err
		}
		vf.IsSignaled = false
	}
	return nil
}
