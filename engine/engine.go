package engine

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/spaghettifunk/lovevk/engine/assets"
	"github.com/spaghettifunk/lovevk/engine/core"
	"github.com/spaghettifunk/lovevk/engine/platform"
	"github.com/spaghettifunk/lovevk/engine/renderer/vulkan"
	"github.com/spaghettifunk/lovevk/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Engine runs the editor: a window, the Vulkan frame loop and the texture
// pipeline fed by dropped files and the watched asset directory.
type Engine struct {
	config       *core.Config
	currentStage Stage
	isRunning    atomic.Bool

	platform     *platform.Platform
	renderer     *vulkan.VulkanRenderer
	assetManager *assets.AssetManager
	jobSystem    *systems.JobSystem
	textures     *systems.TextureSystem
}

func New(config *core.Config) *Engine {
	return &Engine{
		config:       config,
		currentStage: EngineStageUninitialized,
		platform:     platform.New(),
		assetManager: assets.NewAssetManager(config.Assets.Root),
	}
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if err := core.SetLogLevel(e.config.Log.Level); err != nil {
		return err
	}

	app := e.config.Application
	if err := e.platform.Startup(app.Name, app.Width, app.Height); err != nil {
		return err
	}

	if err := e.assetManager.Initialize(e.config.Assets.Watch); err != nil {
		return err
	}

	r := e.config.Renderer
	renderer, err := vulkan.New(app.Name, e.platform.VulkanProcAddr(), r.FramesInFlight, r.Validation, r.DebugRetirementCheck)
	if err != nil {
		return err
	}
	e.renderer = renderer

	js, err := systems.NewJobSystem(runtime.NumCPU(), 64)
	if err != nil {
		return err
	}
	e.jobSystem = js

	ts, err := systems.NewTextureSystem(&systems.TextureSystemConfig{
		MaxTextureCount: 1024,
		GenerateMips:    e.config.Assets.GenerateMips,
	}, renderer.Allocator(), renderer.Cleanup(), e.assetManager, js)
	if err != nil {
		return err
	}
	e.textures = ts

	for _, asset := range e.assetManager.List(assets.AssetKindImage) {
		if err := ts.RequestAsync(asset.Path); err != nil {
			core.LogWarn("skipping %s: %s", asset.Path, err)
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives frames until the window closes or Stop is called.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	for e.isRunning.Load() && !e.platform.ShouldClose() {
		e.platform.PumpMessages()
		e.collectRequests()

		if err := e.renderer.BeginFrame(); err != nil {
			return err
		}
		if _, err := e.textures.Upload(e.renderer.Recorder()); err != nil {
			core.LogWarn("some textures failed to upload: %s", err)
		}
		if err := e.renderer.EndFrame(); err != nil {
			return err
		}
	}
	return nil
}

// Stop asks Run to return after the current frame. Safe from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) collectRequests() {
	for {
		select {
		case path := <-e.platform.Dropped():
			e.request(path)
		case path := <-e.assetManager.Images():
			e.request(path)
		default:
			return
		}
	}
}

func (e *Engine) request(path string) {
	if err := e.textures.RequestAsync(path); err != nil {
		core.LogWarn("texture request for %s failed: %s", path, err)
	}
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	if e.jobSystem != nil {
		if err := e.jobSystem.Shutdown(); err != nil {
			return err
		}
	}
	if err := e.assetManager.Close(); err != nil {
		return err
	}
	if e.textures != nil {
		if err := e.textures.Shutdown(); err != nil {
			return err
		}
	}
	if e.renderer != nil {
		e.renderer.Shutdown()
	}
	return e.platform.Shutdown()
}
