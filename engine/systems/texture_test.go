package systems

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spaghettifunk/lovevk/engine/core"
	"github.com/spaghettifunk/lovevk/engine/renderer/frame"
	"github.com/spaghettifunk/lovevk/engine/renderer/resource"
)

type stubImage struct{ destroyed int }

func (s *stubImage) Destroy() { s.destroyed++ }

type stubStaging struct {
	size     uint64
	released int
}

func (s *stubStaging) Size() uint64           { return s.size }
func (s *stubStaging) Write(data []byte) error { return nil }
func (s *stubStaging) Release()               { s.released++ }

type stubAllocator struct {
	images   []*stubImage
	stagings []*stubStaging
}

func (a *stubAllocator) CreateImage(resource.ImageInfo) (resource.DeviceImage, error) {
	img := &stubImage{}
	a.images = append(a.images, img)
	return img, nil
}

func (a *stubAllocator) CreateStagingBuffer(size uint64) (resource.StagingBuffer, error) {
	s := &stubStaging{size: size}
	a.stagings = append(a.stagings, s)
	return s, nil
}

type barrier struct {
	src, dst resource.Stage
	resource.ImageBarrier
}

type stubRecorder struct {
	barriers []barrier
	copies   int
}

func (r *stubRecorder) PipelineBarrier(src, dst resource.Stage, b resource.ImageBarrier) {
	r.barriers = append(r.barriers, barrier{src: src, dst: dst, ImageBarrier: b})
}

func (r *stubRecorder) CopyBufferToImage(resource.StagingBuffer, resource.DeviceImage, resource.Layout, resource.BufferImageCopy) {
	r.copies++
}

// stubSource serves files from a map of path to extent.
type stubSource map[string]resource.SourceInfo

func (s stubSource) Inspect(path string) (resource.SourceInfo, error) {
	info, ok := s[path]
	if !ok {
		return resource.SourceInfo{}, fmt.Errorf("%s: %w", path, core.ErrImageDecode)
	}
	return info, nil
}

func (s stubSource) Decode(path string, channels int) ([]byte, error) {
	info, err := s.Inspect(path)
	if err != nil {
		return nil, err
	}
	return make([]byte, int(info.Width*info.Height)*channels), nil
}

type textureFixture struct {
	ts      *TextureSystem
	alloc   *stubAllocator
	cleanup *frame.CleanupRing
	source  stubSource
}

func newTextureFixture(t *testing.T, config *TextureSystemConfig) *textureFixture {
	t.Helper()
	f := &textureFixture{
		alloc:   &stubAllocator{},
		cleanup: frame.NewCleanupRing(frame.NewClock(3)),
		source: stubSource{
			"grass.png": {Width: 64, Height: 64, Channels: 4},
			"rock.png":  {Width: 16, Height: 8, Channels: 3},
		},
	}
	ts, err := NewTextureSystem(config, f.alloc, f.cleanup, f.source, nil)
	if err != nil {
		t.Fatal(err)
	}
	f.ts = ts
	return f
}

func TestNewTextureSystemRequiresCapacity(t *testing.T) {
	g := NewWithT(t)
	_, err := NewTextureSystem(&TextureSystemConfig{}, &stubAllocator{}, frame.NewCleanupRing(frame.NewClock(2)), stubSource{}, nil)
	g.Expect(err).To(HaveOccurred())
}

func TestRequestValidatesBeforeQueueing(t *testing.T) {
	g := NewWithT(t)
	f := newTextureFixture(t, &TextureSystemConfig{MaxTextureCount: 4})

	err := f.ts.Request("missing.png")
	g.Expect(errors.Is(err, core.ErrImageDecode)).To(BeTrue())
	g.Expect(f.ts.Pending()).To(Equal(0))

	g.Expect(f.ts.Request("grass.png")).To(Succeed())
	g.Expect(f.ts.Request("grass.png")).To(Succeed())
	g.Expect(f.ts.Pending()).To(Equal(1))
}

func TestUploadLeavesEveryMipShaderReadable(t *testing.T) {
	g := NewWithT(t)
	f := newTextureFixture(t, &TextureSystemConfig{MaxTextureCount: 4, GenerateMips: true})
	rec := &stubRecorder{}

	g.Expect(f.ts.Request("grass.png")).To(Succeed())
	uploaded, err := f.ts.Upload(rec)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(uploaded).To(HaveLen(1))
	g.Expect(f.ts.Pending()).To(Equal(0))

	img := uploaded[0].Image
	g.Expect(img.MipLevels).To(BeEquivalentTo(7))
	for _, layout := range img.Layouts() {
		g.Expect(layout).To(Equal(resource.LayoutShaderReadOnly))
	}

	// upload barrier, base level to shader read, upper levels to shader read
	g.Expect(rec.barriers).To(HaveLen(3))
	g.Expect(rec.copies).To(Equal(1))
	base := rec.barriers[1]
	g.Expect(base.OldLayout).To(Equal(resource.LayoutTransferDst))
	g.Expect(base.src).To(Equal(resource.StageTransfer))
	g.Expect(base.dst).To(Equal(resource.StageFragmentShader))
	g.Expect(base.LevelCount).To(BeEquivalentTo(1))
	upper := rec.barriers[2]
	g.Expect(upper.OldLayout).To(Equal(resource.LayoutUndefined))
	g.Expect(upper.BaseMipLevel).To(BeEquivalentTo(1))
	g.Expect(upper.LevelCount).To(BeEquivalentTo(6))

	tex, ok := f.ts.Get(uploaded[0].ID)
	g.Expect(ok).To(BeTrue())
	g.Expect(tex.Path).To(Equal("grass.png"))
}

func TestUploadWithoutMipsRecordsSingleReadBarrier(t *testing.T) {
	g := NewWithT(t)
	f := newTextureFixture(t, &TextureSystemConfig{MaxTextureCount: 4})
	rec := &stubRecorder{}

	g.Expect(f.ts.Request("rock.png")).To(Succeed())
	uploaded, err := f.ts.Upload(rec)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(uploaded[0].Image.MipLevels).To(BeEquivalentTo(1))
	g.Expect(rec.barriers).To(HaveLen(2))
}

func TestUploadReportsFailuresAndKeepsGoing(t *testing.T) {
	g := NewWithT(t)
	f := newTextureFixture(t, &TextureSystemConfig{MaxTextureCount: 4})
	rec := &stubRecorder{}

	g.Expect(f.ts.Request("grass.png")).To(Succeed())
	g.Expect(f.ts.Request("rock.png")).To(Succeed())
	// The file disappears between request and upload.
	delete(f.source, "grass.png")

	uploaded, err := f.ts.Upload(rec)
	g.Expect(errors.Is(err, core.ErrImageDecode)).To(BeTrue())
	g.Expect(uploaded).To(HaveLen(1))
	g.Expect(uploaded[0].Path).To(Equal("rock.png"))
}

func TestUploadHonoursTextureLimit(t *testing.T) {
	g := NewWithT(t)
	f := newTextureFixture(t, &TextureSystemConfig{MaxTextureCount: 1})
	rec := &stubRecorder{}

	g.Expect(f.ts.Request("grass.png")).To(Succeed())
	g.Expect(f.ts.Request("rock.png")).To(Succeed())
	uploaded, err := f.ts.Upload(rec)
	g.Expect(err).To(HaveOccurred())
	g.Expect(uploaded).To(HaveLen(1))
	g.Expect(f.ts.Count()).To(Equal(1))
}

func TestReleaseDefersDestroyByFramesInFlight(t *testing.T) {
	g := NewWithT(t)
	f := newTextureFixture(t, &TextureSystemConfig{MaxTextureCount: 4})
	rec := &stubRecorder{}

	g.Expect(f.ts.Request("rock.png")).To(Succeed())
	uploaded, err := f.ts.Upload(rec)
	g.Expect(err).NotTo(HaveOccurred())
	id := uploaded[0].ID

	g.Expect(f.ts.Release(id)).To(BeTrue())
	g.Expect(f.ts.Release(id)).To(BeFalse())
	_, ok := f.ts.Get(id)
	g.Expect(ok).To(BeFalse())

	device := f.alloc.images[0]
	f.cleanup.AdvanceFrame()
	f.cleanup.AdvanceFrame()
	g.Expect(device.destroyed).To(Equal(0))
	f.cleanup.AdvanceFrame()
	g.Expect(device.destroyed).To(Equal(1))
	g.Expect(f.alloc.stagings[0].released).To(Equal(1))
}

func TestReloadReplacesTexture(t *testing.T) {
	g := NewWithT(t)
	f := newTextureFixture(t, &TextureSystemConfig{MaxTextureCount: 1})
	rec := &stubRecorder{}

	g.Expect(f.ts.Request("rock.png")).To(Succeed())
	first, err := f.ts.Upload(rec)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(f.ts.Request("rock.png")).To(Succeed())
	second, err := f.ts.Upload(rec)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(second[0].ID).NotTo(Equal(first[0].ID))
	g.Expect(second[0].Generation).To(BeEquivalentTo(1))
	g.Expect(f.ts.Count()).To(Equal(1))
	tex, ok := f.ts.Lookup("rock.png")
	g.Expect(ok).To(BeTrue())
	g.Expect(tex.ID).To(Equal(second[0].ID))
}

func TestShutdownReleasesThroughFlush(t *testing.T) {
	g := NewWithT(t)
	f := newTextureFixture(t, &TextureSystemConfig{MaxTextureCount: 4})
	rec := &stubRecorder{}

	g.Expect(f.ts.Request("rock.png")).To(Succeed())
	g.Expect(f.ts.Request("grass.png")).To(Succeed())
	_, err := f.ts.Upload(rec)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(f.ts.Shutdown()).To(Succeed())
	g.Expect(f.ts.Count()).To(Equal(0))
	f.cleanup.Flush()
	for _, img := range f.alloc.images {
		g.Expect(img.destroyed).To(Equal(1))
	}
}

func TestRequestAsyncUsesJobSystem(t *testing.T) {
	g := NewWithT(t)
	f := newTextureFixture(t, &TextureSystemConfig{MaxTextureCount: 4})
	js, err := NewJobSystem(1, 4)
	g.Expect(err).NotTo(HaveOccurred())
	f.ts.jobs = js

	g.Expect(f.ts.RequestAsync("rock.png")).To(Succeed())
	g.Expect(js.Shutdown()).To(Succeed())
	g.Expect(f.ts.Pending()).To(Equal(1))
}
