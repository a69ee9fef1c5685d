package resource

import "github.com/spaghettifunk/lovevk/engine/renderer/frame"

// ImageInfo describes a device image to allocate.
type ImageInfo struct {
	Name      string
	Width     uint32
	Height    uint32
	Format    Format
	MipLevels uint32
	Usage     Usage
}

// DeviceImage is a device image together with its backing allocation.
// Destroy releases both and must be called exactly once.
type DeviceImage interface {
	Destroy()
}

// StagingBuffer is a host-visible buffer used as the source of an upload.
type StagingBuffer interface {
	Size() uint64
	// Write copies data at offset 0 and flushes it to the device.
	Write(data []byte) error
	// Release destroys the buffer and its memory. Called exactly once, after
	// the device has executed every copy reading from it.
	Release()
}

// Allocator creates device resources.
type Allocator interface {
	CreateImage(info ImageInfo) (DeviceImage, error)
	CreateStagingBuffer(size uint64) (StagingBuffer, error)
}

// ImageBarrier moves a mip range of an image from OldLayout to NewLayout.
type ImageBarrier struct {
	Image        DeviceImage
	OldLayout    Layout
	NewLayout    Layout
	SrcAccess    Access
	DstAccess    Access
	BaseMipLevel uint32
	LevelCount   uint32
}

// BufferImageCopy copies a tightly packed region from offset 0 of a buffer
// into one mip level of an image.
type BufferImageCopy struct {
	MipLevel uint32
	Width    uint32
	Height   uint32
}

// Recorder records commands into a command buffer.
type Recorder interface {
	PipelineBarrier(src, dst Stage, barrier ImageBarrier)
	CopyBufferToImage(src StagingBuffer, dst DeviceImage, layout Layout, region BufferImageCopy)
}

// Deferrer delays an action until the device is done with the current frame.
// frame.CleanupRing implements it.
type Deferrer interface {
	Enqueue(action frame.Action)
}

// SourceInfo is what a pixel source reports without decoding the payload.
type SourceInfo struct {
	Width    uint32
	Height   uint32
	Channels int
}

// PixelSource reads image files (or anything a locator can address).
type PixelSource interface {
	Inspect(locator string) (SourceInfo, error)
	// Decode returns width*height texels of the requested channel count,
	// tightly packed, 8 bits per channel.
	Decode(locator string, channels int) ([]byte, error)
}
