package vulkan

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/spaghettifunk/lovevk/engine/core"
	"github.com/spaghettifunk/lovevk/engine/renderer/frame"
	"github.com/spaghettifunk/lovevk/engine/renderer/resource"
)

// VulkanRenderer drives frames on the graphics queue. Each frame slot owns a
// command pool and a fence; resources released during a frame are destroyed
// once that slot comes around again.
type VulkanRenderer struct {
	Device *VulkanDevice

	clock    *frame.Clock
	cleanup  *frame.CleanupRing
	commands *frame.CommandRing[*VulkanCommandBuffer]

	inFlightFences []*VulkanFence
	current        *VulkanCommandBuffer
}

// New creates the device and the per-slot state for framesInFlight frames.
// With retirementCheck the cleanup ring re-reads the slot's fence after
// BeginFrame has waited on it. It catches a wait that came back early, not an
// undersized framesInFlight: the wait itself already covers that case.
func New(appName string, procAddr unsafe.Pointer, framesInFlight uint32, validation, retirementCheck bool) (*VulkanRenderer, error) {
	device, err := DeviceCreate(appName, procAddr, validation)
	if err != nil {
		return nil, err
	}

	vr := &VulkanRenderer{
		Device: device,
		clock:  frame.NewClock(framesInFlight),
	}

	vr.inFlightFences = make([]*VulkanFence, framesInFlight)
	for i := range vr.inFlightFences {
		// Create the fence in a signaled state, indicating that the first frame has already been "rendered".
		fence, err := NewFence(device, true)
		if err != nil {
			vr.Shutdown()
			return nil, err
		}
		vr.inFlightFences[i] = fence
	}

	var opts []frame.Option
	if retirementCheck {
		opts = append(opts, frame.WithRetirementCheck(func(slot uint32) bool {
			return vr.inFlightFences[slot].Status()
		}))
	}
	vr.cleanup = frame.NewCleanupRing(vr.clock, opts...)

	vr.commands, err = frame.NewCommandRing[*VulkanCommandBuffer](vr.clock, CommandPoolFactory(device))
	if err != nil {
		vr.Shutdown()
		return nil, err
	}

	core.LogInfo("Vulkan renderer initialized successfully (%d frames in flight).", framesInFlight)
	return vr, nil
}

// Allocator creates device images and staging buffers.
func (vr *VulkanRenderer) Allocator() resource.Allocator {
	return vr.Device
}

// Cleanup is the deferred release ring shared by every resource system.
func (vr *VulkanRenderer) Cleanup() *frame.CleanupRing {
	return vr.cleanup
}

// Recorder returns the command buffer of the frame being recorded, or nil
// outside BeginFrame/EndFrame.
func (vr *VulkanRenderer) Recorder() resource.Recorder {
	if vr.current == nil {
		return nil
	}
	return vr.current
}

// BeginFrame waits for the slot about to be reused, runs its deferred
// releases and starts recording into a fresh command buffer.
func (vr *VulkanRenderer) BeginFrame() error {
	if vr.current != nil {
		return fmt.Errorf("%w: BeginFrame called twice without EndFrame", core.ErrSubmission)
	}

	next := vr.clock.NextSlot()
	// Wait for the execution of the frame that last used this slot to complete.
	if err := vr.inFlightFences[next].Wait(math.MaxUint64); err != nil {
		return err
	}

	vr.cleanup.AdvanceFrame()

	slot := vr.clock.Slot()
	if err := vr.commands.ResetSlot(slot); err != nil {
		return err
	}
	cb, err := vr.commands.AllocateForCurrentFrame()
	if err != nil {
		return err
	}
	if err := cb.Begin(true); err != nil {
		return err
	}
	vr.current = cb
	return nil
}

// EndFrame closes the command buffer and submits it, signalling the slot's fence.
func (vr *VulkanRenderer) EndFrame() error {
	cb := vr.current
	if cb == nil {
		return fmt.Errorf("%w: EndFrame called without BeginFrame", core.ErrSubmission)
	}
	vr.current = nil

	if err := cb.End(); err != nil {
		return err
	}

	fence := vr.inFlightFences[vr.clock.Slot()]
	// Reset the fence for use on the next frame
	if err := fence.Reset(); err != nil {
		return err
	}
	return cb.Submit(vr.Device, fence)
}

func (vr *VulkanRenderer) FrameNumber() uint64 {
	return vr.clock.Counter()
}

// Shutdown waits for the device, runs every pending release and destroys the
// device in the opposite order of creation.
func (vr *VulkanRenderer) Shutdown() {
	if vr.Device == nil {
		return
	}
	if err := vr.Device.WaitIdle(); err != nil {
		core.LogWarn("device wait idle failed on shutdown: %s", err)
	}

	if vr.cleanup != nil {
		vr.cleanup.Flush()
	}
	if vr.commands != nil {
		vr.commands.Destroy()
		vr.commands = nil
	}
	for _, fence := range vr.inFlightFences {
		if fence != nil {
			fence.Destroy()
		}
	}
	vr.inFlightFences = nil

	core.LogDebug("Destroying Vulkan device...")
	vr.Device.Destroy()
	vr.Device = nil
}
