package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/lovevk/engine/core"
	"github.com/spaghettifunk/lovevk/engine/renderer/resource"
)

type TextureSystemConfig struct {
	// The maximum number of textures that can be loaded at once.
	MaxTextureCount uint32
	GenerateMips    bool
}

// Texture is a sampled image built from a file on disk.
type Texture struct {
	ID         uuid.UUID
	Path       string
	Image      *resource.Image
	Generation uint32
}

// TextureSystem turns requested image files into shader-readable textures.
// Requests may arrive from any goroutine; Upload, Release and Shutdown run
// on the render thread.
type TextureSystem struct {
	Config *TextureSystemConfig

	source   resource.PixelSource
	cleanup  resource.Deferrer
	uploader *resource.Uploader
	jobs     *JobSystem

	mu      sync.Mutex
	pending []string

	textures map[uuid.UUID]*Texture
	byPath   map[string]uuid.UUID
}

func NewTextureSystem(config *TextureSystemConfig, allocator resource.Allocator, cleanup resource.Deferrer, source resource.PixelSource, jobs *JobSystem) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &TextureSystem{
		Config:   config,
		source:   source,
		cleanup:  cleanup,
		uploader: resource.NewUploader(allocator, cleanup, source),
		jobs:     jobs,
		textures: make(map[uuid.UUID]*Texture),
		byPath:   make(map[string]uuid.UUID),
	}, nil
}

// Request validates the file at path and queues it for the next Upload.
// Requesting a path that is already loaded reloads it.
func (ts *TextureSystem) Request(path string) error {
	info, err := ts.source.Inspect(path)
	if err != nil {
		return fmt.Errorf("texture %s rejected: %w", path, err)
	}
	if info.Width == 0 || info.Height == 0 {
		return fmt.Errorf("texture %s rejected: empty extent: %w", path, core.ErrImageDecode)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	for _, p := range ts.pending {
		if p == path {
			return nil
		}
	}
	ts.pending = append(ts.pending, path)
	core.LogDebug("texture %s queued (%dx%d, %d channels)", path, info.Width, info.Height, info.Channels)
	return nil
}

// RequestAsync runs Request on the job system.
func (ts *TextureSystem) RequestAsync(path string) error {
	if ts.jobs == nil {
		return ts.Request(path)
	}
	return ts.jobs.Submit(JobTask{
		Name: "texture request " + path,
		Run:  func() error { return ts.Request(path) },
	})
}

// Pending returns the number of queued requests.
func (ts *TextureSystem) Pending() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.pending)
}

// Upload records into rec the commands that build every queued texture and
// leaves all of their mip levels in LayoutShaderReadOnly. Failed requests are
// dropped and reported in the returned error; the others are still uploaded.
// Only mip 0 holds pixels: levels 1 and up are shader-readable but their
// contents are undefined until the caller generates them.
func (ts *TextureSystem) Upload(rec resource.Recorder) ([]*Texture, error) {
	ts.mu.Lock()
	paths := ts.pending
	ts.pending = nil
	ts.mu.Unlock()

	var (
		uploaded []*Texture
		errs     []error
	)
	for _, path := range paths {
		previous, reload := ts.byPath[path]
		if !reload && uint32(len(ts.textures)) >= ts.Config.MaxTextureCount {
			errs = append(errs, fmt.Errorf("texture %s dropped: limit of %d textures reached", path, ts.Config.MaxTextureCount))
			continue
		}

		img, err := ts.uploader.BuildImage(rec, path, resource.UsageSampled, ts.Config.GenerateMips)
		if err != nil {
			core.LogError("failed to upload texture %s: %s", path, err)
			errs = append(errs, err)
			continue
		}
		makeShaderReadable(rec, img)

		tex := &Texture{
			ID:    img.ID,
			Path:  path,
			Image: img,
		}
		if reload {
			tex.Generation = ts.textures[previous].Generation + 1
			ts.Release(previous)
		}
		ts.textures[tex.ID] = tex
		ts.byPath[path] = tex.ID
		uploaded = append(uploaded, tex)
		core.LogInfo("texture %s uploaded as %s (%dx%d, %d mips)", path, tex.ID, img.Width, img.Height, img.MipLevels)
	}
	return uploaded, errors.Join(errs...)
}

// makeShaderReadable moves the freshly copied base level and the untouched
// upper levels to LayoutShaderReadOnly.
func makeShaderReadable(rec resource.Recorder, img *resource.Image) {
	img.MustTransition(rec, resource.LayoutShaderReadOnly, resource.StageTransfer, resource.StageFragmentShader, 0, 1)
	if img.MipLevels > 1 {
		img.MustTransition(rec, resource.LayoutShaderReadOnly, resource.StageTopOfPipe, resource.StageFragmentShader, 1, resource.AllMipLevels)
	}
}

func (ts *TextureSystem) Get(id uuid.UUID) (*Texture, bool) {
	tex, ok := ts.textures[id]
	return tex, ok
}

func (ts *TextureSystem) Lookup(path string) (*Texture, bool) {
	id, ok := ts.byPath[path]
	if !ok {
		return nil, false
	}
	return ts.Get(id)
}

// Count returns the number of live textures.
func (ts *TextureSystem) Count() int {
	return len(ts.textures)
}

// Release forgets the texture and destroys its image once the frames that
// may still sample it have retired.
func (ts *TextureSystem) Release(id uuid.UUID) bool {
	tex, ok := ts.textures[id]
	if !ok {
		return false
	}
	delete(ts.textures, id)
	if ts.byPath[tex.Path] == id {
		delete(ts.byPath, tex.Path)
	}
	img := tex.Image
	ts.cleanup.Enqueue(img.Destroy)
	return true
}

// Shutdown releases every texture. The images are destroyed when the cleanup
// ring is flushed.
func (ts *TextureSystem) Shutdown() error {
	ts.mu.Lock()
	ts.pending = nil
	ts.mu.Unlock()

	for id := range ts.textures {
		ts.Release(id)
	}
	return nil
}
