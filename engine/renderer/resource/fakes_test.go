package resource

import (
	"errors"
)

type fakeDeviceImage struct {
	info      ImageInfo
	destroyed int
}

func (f *fakeDeviceImage) Destroy() { f.destroyed++ }

type fakeStaging struct {
	size     uint64
	data     []byte
	released int
	writeErr error
}

func (f *fakeStaging) Size() uint64 { return f.size }

func (f *fakeStaging) Write(data []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.data = append([]byte(nil), data...)
	return nil
}

func (f *fakeStaging) Release() { f.released++ }

type fakeAllocator struct {
	images     []*fakeDeviceImage
	stagings   []*fakeStaging
	imageErr   error
	stagingErr error
	writeErr   error
}

func (a *fakeAllocator) CreateImage(info ImageInfo) (DeviceImage, error) {
	if a.imageErr != nil {
		return nil, a.imageErr
	}
	img := &fakeDeviceImage{info: info}
	a.images = append(a.images, img)
	return img, nil
}

func (a *fakeAllocator) CreateStagingBuffer(size uint64) (StagingBuffer, error) {
	if a.stagingErr != nil {
		return nil, a.stagingErr
	}
	s := &fakeStaging{size: size, writeErr: a.writeErr}
	a.stagings = append(a.stagings, s)
	return s, nil
}

type recordedBarrier struct {
	src, dst Stage
	barrier  ImageBarrier
}

type recordedCopy struct {
	src    StagingBuffer
	dst    DeviceImage
	layout Layout
	region BufferImageCopy
}

// fakeRecorder keeps commands in recording order.
type fakeRecorder struct {
	commands []interface{}
}

func (r *fakeRecorder) PipelineBarrier(src, dst Stage, barrier ImageBarrier) {
	r.commands = append(r.commands, recordedBarrier{src: src, dst: dst, barrier: barrier})
}

func (r *fakeRecorder) CopyBufferToImage(src StagingBuffer, dst DeviceImage, layout Layout, region BufferImageCopy) {
	r.commands = append(r.commands, recordedCopy{src: src, dst: dst, layout: layout, region: region})
}

type fakeSource struct {
	info       SourceInfo
	inspectErr error
	decodeErr  error
	// shortBy trims the decoded payload to simulate a broken decoder.
	shortBy     int
	decodedWith int
}

var errMissing = errors.New("no such file")

func (s *fakeSource) Inspect(string) (SourceInfo, error) {
	if s.inspectErr != nil {
		return SourceInfo{}, s.inspectErr
	}
	return s.info, nil
}

func (s *fakeSource) Decode(_ string, channels int) ([]byte, error) {
	if s.decodeErr != nil {
		return nil, s.decodeErr
	}
	s.decodedWith = channels
	n := int(s.info.Width)*int(s.info.Height)*channels - s.shortBy
	pixels := make([]byte, n)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	return pixels, nil
}
