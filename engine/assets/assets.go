package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/lovevk/engine/assets/loaders"
	"github.com/spaghettifunk/lovevk/engine/core"
	"github.com/spaghettifunk/lovevk/engine/renderer/resource"
)

type AssetKind int

const (
	AssetKindNone AssetKind = iota
	AssetKindImage
)

type AssetInfo struct {
	Path     string
	Kind     AssetKind
	Modified time.Time
}

// AssetManager indexes the asset directory, watches it for changes and reads
// pixel data through the loader registered for each kind. It implements
// resource.PixelSource; relative locators resolve against the asset root.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[AssetKind]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	images   chan string
	errors   chan error
}

var _ resource.PixelSource = (*AssetManager)(nil)

func NewAssetManager(root string) *AssetManager {
	am := &AssetManager{
		root:    root,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[AssetKind]Loader),
		images:  make(chan string, 64),
		errors:  make(chan error, 8),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	am.registerLoader(AssetKindImage, loaders.NewImageLoader())
	return am
}

// Initialize indexes every asset under the root. With watch set, changes are
// reported on Images until Close.
func (am *AssetManager) Initialize(watch bool) error {
	if err := os.MkdirAll(am.root, 0o755); err != nil {
		return err
	}
	if !watch {
		return am.walk(am.root, nil, false)
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.fsnotify = fsWatch
	if err := am.walk(am.root, fsWatch, false); err != nil {
		fsWatch.Close()
		am.fsnotify = nil
		return err
	}
	go am.start()
	core.LogInfo("watching %s for asset changes", am.root)
	return nil
}

// Images delivers paths of image assets that were created or rewritten.
func (am *AssetManager) Images() <-chan string {
	return am.images
}

// Errors delivers watcher failures.
func (am *AssetManager) Errors() <-chan error {
	return am.errors
}

func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[am.resolve(path)]
	return info, ok
}

// List returns the indexed assets of the given kind sorted by path.
func (am *AssetManager) List(kind AssetKind) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	out := make([]AssetInfo, 0, len(am.assets))
	for _, info := range am.assets {
		if info.Kind == kind {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (am *AssetManager) Inspect(locator string) (resource.SourceInfo, error) {
	path := am.resolve(locator)
	loader, err := am.loaderFor(path)
	if err != nil {
		return resource.SourceInfo{}, err
	}
	return loader.Inspect(path)
}

func (am *AssetManager) Decode(locator string, channels int) ([]byte, error) {
	path := am.resolve(locator)
	loader, err := am.loaderFor(path)
	if err != nil {
		return nil, err
	}
	return loader.Decode(path, channels)
}

// Close stops the watcher. Safe to call more than once.
func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	if am.fsnotify != nil {
		<-am.stopped
	}
	return nil
}

func (am *AssetManager) registerLoader(kind AssetKind, loader Loader) {
	am.loaders[kind] = loader
}

func (am *AssetManager) loaderFor(path string) (Loader, error) {
	kind := determineAssetKind(path)
	loader, ok := am.loaders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no loader registered for %s", core.ErrImageDecode, path)
	}
	return loader, nil
}

func (am *AssetManager) resolve(locator string) string {
	clean := filepath.Clean(locator)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, filepath.Clean(am.root)+string(filepath.Separator)) {
		return clean
	}
	return filepath.Join(am.root, locator)
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(e.Error())
			select {
			case am.errors <- e:
			default:
			}

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := am.walk(e.Name, am.fsnotify, true); err != nil {
				core.LogWarn("failed to watch %s: %s", e.Name, err)
			}
			return
		}
	}
	// Can't stat a removed path, so drop it from the index whatever it was.
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
		return
	}
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		am.indexFile(e.Name, true)
	}
}

// walk indexes every file under path, adding each directory to watcher when
// one is given.
func (am *AssetManager) walk(path string, watcher *fsnotify.Watcher, notify bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if watcher != nil {
				return watcher.Add(walkPath)
			}
			return nil
		}
		am.indexFile(walkPath, notify)
		return nil
	})
}

func (am *AssetManager) indexFile(path string, notify bool) {
	kind := determineAssetKind(path)
	if kind == AssetKindNone {
		return
	}
	path = filepath.Clean(path)

	am.mutex.Lock()
	am.assets[path] = AssetInfo{
		Path:     path,
		Kind:     kind,
		Modified: time.Now(),
	}
	am.mutex.Unlock()

	if notify && kind == AssetKindImage {
		select {
		case am.images <- path:
		default:
			core.LogWarn("asset change queue full, skipping %s", path)
		}
	}
}

func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func determineAssetKind(path string) AssetKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return AssetKindImage
	default:
		return AssetKindNone
	}
}
