package resource

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spaghettifunk/lovevk/engine/core"
)

func newTestImage(levels uint32) (*Image, *fakeDeviceImage) {
	handle := &fakeDeviceImage{}
	img := newImage(ImageInfo{Name: "test", Width: 1 << (levels - 1), Height: 1, MipLevels: levels, Format: FormatR8G8B8A8SRGB}, handle)
	return img, handle
}

func TestNewImageStartsUndefined(t *testing.T) {
	g := NewWithT(t)
	img, _ := newTestImage(4)
	g.Expect(img.Layouts()).To(Equal([]Layout{LayoutUndefined, LayoutUndefined, LayoutUndefined, LayoutUndefined}))
	g.Expect(img.ID.String()).NotTo(BeEmpty())
}

func TestTransitionUpdatesOnlyAddressedRange(t *testing.T) {
	g := NewWithT(t)
	img, handle := newTestImage(5)
	rec := &fakeRecorder{}

	g.Expect(img.Transition(rec, LayoutTransferDst, StageTopOfPipe, StageTransfer, 1, 3)).To(Succeed())

	g.Expect(img.Layouts()).To(Equal([]Layout{
		LayoutUndefined, LayoutTransferDst, LayoutTransferDst, LayoutTransferDst, LayoutUndefined,
	}))
	g.Expect(rec.commands).To(HaveLen(1))
	g.Expect(rec.commands[0]).To(Equal(recordedBarrier{
		src: StageTopOfPipe,
		dst: StageTransfer,
		barrier: ImageBarrier{
			Image:        handle,
			OldLayout:    LayoutUndefined,
			NewLayout:    LayoutTransferDst,
			SrcAccess:    AccessNone,
			DstAccess:    AccessTransferWrite,
			BaseMipLevel: 1,
			LevelCount:   3,
		},
	}))
}

func TestTransitionAllMipLevelsRunsToEndOfChain(t *testing.T) {
	g := NewWithT(t)
	img, _ := newTestImage(4)
	rec := &fakeRecorder{}

	g.Expect(img.Transition(rec, LayoutTransferDst, StageTopOfPipe, StageTransfer, 2, AllMipLevels)).To(Succeed())
	g.Expect(img.Layouts()).To(Equal([]Layout{LayoutUndefined, LayoutUndefined, LayoutTransferDst, LayoutTransferDst}))
	g.Expect(rec.commands[0].(recordedBarrier).barrier.LevelCount).To(BeEquivalentTo(2))

	g.Expect(img.Transition(rec, LayoutShaderReadOnly, StageTransfer, StageFragmentShader, 2, AllMipLevels)).To(Succeed())
	b := rec.commands[1].(recordedBarrier).barrier
	g.Expect(b.SrcAccess).To(Equal(AccessTransferWrite))
	g.Expect(b.DstAccess).To(Equal(AccessShaderRead))
}

func TestTransitionRejectsNonUniformRange(t *testing.T) {
	g := NewWithT(t)
	img, _ := newTestImage(4)
	rec := &fakeRecorder{}

	g.Expect(img.Transition(rec, LayoutTransferDst, StageTopOfPipe, StageTransfer, 0, 1)).To(Succeed())
	before := img.Layouts()

	err := img.Transition(rec, LayoutShaderReadOnly, StageTransfer, StageFragmentShader, 0, AllMipLevels)
	g.Expect(errors.Is(err, core.ErrInvalidTransition)).To(BeTrue())

	var terr *TransitionError
	g.Expect(errors.As(err, &terr)).To(BeTrue())
	g.Expect(terr.Mip).To(BeEquivalentTo(1))
	g.Expect(terr.Expected).To(Equal(LayoutTransferDst))
	g.Expect(terr.Found).To(Equal(LayoutUndefined))

	// Nothing recorded, nothing changed.
	g.Expect(rec.commands).To(HaveLen(1))
	g.Expect(img.Layouts()).To(Equal(before))
}

func TestTransitionRejectsOutOfRange(t *testing.T) {
	cases := map[string][2]uint32{
		"start past end": {4, 1},
		"zero count":     {0, 0},
		"overflowing":    {2, 3},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			g := NewWithT(t)
			img, _ := newTestImage(4)
			rec := &fakeRecorder{}
			err := img.Transition(rec, LayoutGeneral, StageAllCommands, StageAllCommands, r[0], r[1])
			g.Expect(err).To(MatchError(core.ErrInvalidTransition))
			g.Expect(rec.commands).To(BeEmpty())
		})
	}
}

func TestMustTransitionPanicsWithTransitionError(t *testing.T) {
	g := NewWithT(t)
	img, _ := newTestImage(2)
	rec := &fakeRecorder{}
	img.MustTransition(rec, LayoutTransferDst, StageTopOfPipe, StageTransfer, 1, 1)

	var recovered interface{}
	func() {
		defer func() { recovered = recover() }()
		img.MustTransition(rec, LayoutShaderReadOnly, StageTransfer, StageFragmentShader, 0, AllMipLevels)
	}()

	err, ok := recovered.(error)
	g.Expect(ok).To(BeTrue())
	g.Expect(err).To(MatchError(core.ErrInvalidTransition))
}

func TestDestroyReleasesOnce(t *testing.T) {
	g := NewWithT(t)
	img, handle := newTestImage(1)
	img.Destroy()
	img.Destroy()
	g.Expect(handle.destroyed).To(Equal(1))
	g.Expect(img.Handle()).To(BeNil())
}
