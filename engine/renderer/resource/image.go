package resource

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/lovevk/engine/core"
)

// AllMipLevels addresses every mip level from the start of a range to the end
// of the chain.
const AllMipLevels = ^uint32(0)

// Image is a device-resident image and the layout of each of its mip levels.
// The layout vector is only changed by Transition.
type Image struct {
	ID        uuid.UUID
	Name      string
	Width     uint32
	Height    uint32
	Format    Format
	MipLevels uint32
	Usage     Usage

	layouts []Layout
	handle  DeviceImage
}

func newImage(info ImageInfo, handle DeviceImage) *Image {
	return &Image{
		ID:        uuid.New(),
		Name:      info.Name,
		Width:     info.Width,
		Height:    info.Height,
		Format:    info.Format,
		MipLevels: info.MipLevels,
		Usage:     info.Usage,
		// The zero Layout is LayoutUndefined.
		layouts: make([]Layout, info.MipLevels),
		handle:  handle,
	}
}

// Handle returns the device image, or nil once the image was destroyed.
func (i *Image) Handle() DeviceImage {
	return i.handle
}

func (i *Image) Layout(mip uint32) Layout {
	return i.layouts[mip]
}

// Layouts returns a copy of the per-mip layout vector.
func (i *Image) Layouts() []Layout {
	out := make([]Layout, len(i.layouts))
	copy(out, i.layouts)
	return out
}

// TransitionError describes a rejected transition. It matches
// core.ErrInvalidTransition with errors.Is.
type TransitionError struct {
	Image    string
	MipStart uint32
	MipCount uint32
	// Mip is the first level whose layout differs from the start of the range.
	Mip      uint32
	Expected Layout
	Found    Layout
	Reason   string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("image `%s` mips [%d, +%d): %s", e.Image, e.MipStart, e.MipCount, e.Reason)
	}
	return fmt.Sprintf("image `%s` mips [%d, +%d): mip %d is %s, expected %s", e.Image, e.MipStart, e.MipCount, e.Mip, e.Found, e.Expected)
}

func (e *TransitionError) Unwrap() error {
	return core.ErrInvalidTransition
}

// Transition records a single barrier moving mips [mipStart, mipStart+mipCount)
// to newLayout and updates their tracked layouts. The whole range must be in
// one layout; otherwise nothing is recorded and a *TransitionError is returned.
// mipCount may be AllMipLevels.
func (i *Image) Transition(rec Recorder, newLayout Layout, src, dst Stage, mipStart, mipCount uint32) error {
	count, err := i.validateRange(mipStart, mipCount)
	if err != nil {
		return err
	}

	oldLayout := i.layouts[mipStart]
	for mip := mipStart + 1; mip < mipStart+count; mip++ {
		if i.layouts[mip] != oldLayout {
			return &TransitionError{
				Image:    i.Name,
				MipStart: mipStart,
				MipCount: count,
				Mip:      mip,
				Expected: oldLayout,
				Found:    i.layouts[mip],
			}
		}
	}

	rec.PipelineBarrier(src, dst, ImageBarrier{
		Image:        i.handle,
		OldLayout:    oldLayout,
		NewLayout:    newLayout,
		SrcAccess:    AccessForLayout(oldLayout),
		DstAccess:    AccessForLayout(newLayout),
		BaseMipLevel: mipStart,
		LevelCount:   count,
	})

	for mip := mipStart; mip < mipStart+count; mip++ {
		i.layouts[mip] = newLayout
	}
	return nil
}

// MustTransition is Transition for callers that treat a lost layout as a
// programming error. It panics with the *TransitionError.
func (i *Image) MustTransition(rec Recorder, newLayout Layout, src, dst Stage, mipStart, mipCount uint32) {
	if err := i.Transition(rec, newLayout, src, dst, mipStart, mipCount); err != nil {
		core.LogError(err.Error())
		panic(err)
	}
}

func (i *Image) validateRange(mipStart, mipCount uint32) (uint32, error) {
	levels := uint32(len(i.layouts))
	if mipStart >= levels {
		return 0, &TransitionError{Image: i.Name, MipStart: mipStart, MipCount: mipCount,
			Reason: fmt.Sprintf("start beyond a chain of %d levels", levels)}
	}
	if mipCount == AllMipLevels {
		return levels - mipStart, nil
	}
	if mipCount == 0 || mipCount > levels-mipStart {
		return 0, &TransitionError{Image: i.Name, MipStart: mipStart, MipCount: mipCount,
			Reason: fmt.Sprintf("range does not fit a chain of %d levels", levels)}
	}
	return mipCount, nil
}

// Destroy releases the device image. Only call it once the device no longer
// uses the image, typically from a deferred cleanup action.
func (i *Image) Destroy() {
	if i.handle == nil {
		return
	}
	i.handle.Destroy()
	i.handle = nil
}
