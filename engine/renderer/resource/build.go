package resource

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/lovevk/engine/core"
)

// Uploader creates images from pixel sources through a staging buffer whose
// release is deferred to the cleanup ring.
type Uploader struct {
	allocator Allocator
	cleanup   Deferrer
	source    PixelSource
}

func NewUploader(allocator Allocator, cleanup Deferrer, source PixelSource) *Uploader {
	return &Uploader{
		allocator: allocator,
		cleanup:   cleanup,
		source:    source,
	}
}

// BuildImage allocates an image for the source addressed by locator and
// records into rec the commands that fill its base level. On return mip 0 is
// in LayoutTransferDst and every other level is LayoutUndefined; generating
// the rest of the chain is up to the caller. usage always gains
// UsageTransferDst.
//
// The staging buffer stays alive until the cleanup ring recycles the current
// frame slot, so rec must be submitted within the current frame.
func (u *Uploader) BuildImage(rec Recorder, locator string, usage Usage, generateMips bool) (*Image, error) {
	src, err := u.source.Inspect(locator)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect `%s`: %w", locator, wrapDecode(err))
	}
	if src.Width == 0 || src.Height == 0 {
		return nil, fmt.Errorf("`%s` has an empty extent %dx%d: %w", locator, src.Width, src.Height, core.ErrImageDecode)
	}

	info := ImageInfo{
		Name:      locator,
		Width:     src.Width,
		Height:    src.Height,
		Format:    FormatForChannels(src.Channels),
		MipLevels: MipLevels(src.Width, src.Height, generateMips),
		Usage:     usage | UsageTransferDst,
	}

	handle, err := u.allocator.CreateImage(info)
	if err != nil {
		return nil, fmt.Errorf("failed to create image for `%s`: %w", locator, wrapAllocation(err))
	}
	image := newImage(info, handle)

	pixels, err := u.source.Decode(locator, info.Format.Channels())
	if err != nil {
		image.Destroy()
		return nil, fmt.Errorf("failed to decode `%s`: %w", locator, wrapDecode(err))
	}
	expected := uint64(info.Width) * uint64(info.Height) * uint64(info.Format.TexelSize())
	if uint64(len(pixels)) != expected {
		image.Destroy()
		return nil, fmt.Errorf("`%s` decoded to %d bytes, expected %d: %w", locator, len(pixels), expected, core.ErrImageDecode)
	}

	staging, err := u.allocator.CreateStagingBuffer(expected)
	if err != nil {
		image.Destroy()
		return nil, fmt.Errorf("failed to create staging buffer for `%s`: %w", locator, wrapAllocation(err))
	}
	if err := staging.Write(pixels); err != nil {
		staging.Release()
		image.Destroy()
		return nil, fmt.Errorf("failed to fill staging buffer for `%s`: %w", locator, wrapAllocation(err))
	}
	// The copy recorded below reads the buffer on the device timeline.
	u.cleanup.Enqueue(staging.Release)

	if err := image.Transition(rec, LayoutTransferDst, StageTopOfPipe, StageTransfer, 0, 1); err != nil {
		image.Destroy()
		return nil, err
	}
	rec.CopyBufferToImage(staging, image.handle, LayoutTransferDst, BufferImageCopy{
		MipLevel: 0,
		Width:    info.Width,
		Height:   info.Height,
	})

	core.LogDebug("Image `%s` staged: %dx%d %s, %d mip levels.", locator, info.Width, info.Height, info.Format, info.MipLevels)
	return image, nil
}

func wrapDecode(err error) error {
	return wrapAs(err, core.ErrImageDecode)
}

func wrapAllocation(err error) error {
	return wrapAs(err, core.ErrDeviceAllocation)
}

func wrapAs(err, kind error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
