package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/platform"
	"github.com/spaghettifunk/gridmesh/engine/renderer"
	"github.com/spaghettifunk/gridmesh/engine/renderer/headless"
	"github.com/spaghettifunk/gridmesh/engine/renderer/opengl"
	"github.com/spaghettifunk/gridmesh/engine/systems"
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
	// Engine released every resource
	EngineStageShutdown
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	stopRequested atomic.Bool
	isSuspended   bool
	// nil when running headless
	platform      *platform.Platform
	renderer      *renderer.Renderer
	systemManager *systems.SystemManager
	width         uint32
	height        uint32
	clock         *core.Clock
	metrics       *core.Metrics
	lastTime      float64
}

func New(g *Game) (*Engine, error) {
	config := g.ApplicationConfig
	if config == nil {
		config = DefaultApplicationConfig()
		g.ApplicationConfig = config
	}
	if err := config.Validate(); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	level, _ := core.ParseLogLevel(config.LogLevel)
	core.SetLogLevel(level)

	kind, _ := renderer.ParseRendererType(config.Renderer.Backend)

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        config.Window.StartWidth,
		height:       config.Window.StartHeight,
	}

	var backend renderer.RendererBackend
	switch kind {
	case renderer.Headless:
		backend = headless.New(headless.Config{
			MemoryBudget: config.Renderer.HeadlessMemoryBudget,
		})
	default:
		p, err := platform.New()
		if err != nil {
			core.LogError("%s", err)
			return nil, err
		}
		p.OnResize = e.onResized
		e.platform = p
		backend = opengl.New(opengl.Config{ClearColour: config.Renderer.ClearColour}, p)
	}
	e.renderer = renderer.New(kind, backend)
	g.Renderer = e.renderer

	return e, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	config := e.gameInstance.ApplicationConfig

	if e.platform != nil {
		if err := e.platform.Startup(config.Name,
			config.Window.StartPosX,
			config.Window.StartPosY,
			config.Window.StartWidth,
			config.Window.StartHeight,
			config.Window.VSync); err != nil {
			return err
		}
		// high-dpi displays report a framebuffer larger than the window
		e.width, e.height = e.platform.FramebufferSize()
	}

	if err := e.renderer.Initialize(config.Name, e.width, e.height); err != nil {
		return err
	}

	sm, err := systems.NewSystemManager(e.renderer, systems.SystemManagerConfig{
		AssetsDir:        config.Shaders.Directory,
		WatchAssets:      config.Shaders.Watch,
		MaxShaderCount:   config.Systems.MaxShaderCount,
		MaxGeometryCount: config.Systems.MaxGeometryCount,
		MaxCameraCount:   config.Systems.MaxCameraCount,
		ReloadQueueSize:  config.Systems.ReloadQueueSize,
	})
	if err != nil {
		core.LogError("%s", err)
		return err
	}
	e.systemManager = sm
	e.gameInstance.SystemManager = sm

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}

	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}
	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before running, current stage %d", e.currentStage)
	}
	e.currentStage = EngineStageRunning
	frameLimit := e.gameInstance.ApplicationConfig.Frames

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for !e.stopRequested.Load() {
		if e.platform != nil && !e.platform.PumpMessages() {
			break
		}
		if e.isSuspended {
			continue
		}

		e.clock.Update()
		var currentTime float64 = e.clock.Elapsed()
		var delta float64 = (currentTime - e.lastTime)
		var frameStartTime float64 = currentTime

		// shader files edited since the previous frame
		e.systemManager.ProcessReloads()

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("Game update failed, shutting down: %s", err)
			return err
		}

		if err := e.renderer.DrawFrame(delta, func() error {
			return e.gameInstance.FnRender(delta)
		}); err != nil {
			core.LogError("Game render failed, shutting down: %s", err)
			return err
		}

		e.clock.Update()
		var frameElapsedTime float64 = e.clock.Elapsed() - frameStartTime
		if e.metrics.Update(frameElapsedTime) {
			fps, frameTime := e.metrics.Frame()
			core.Logger().Debug("frame stats", "fps", fps, "ms", frameTime, "frame", e.renderer.FrameNumber())
		}

		e.lastTime = currentTime

		if frameLimit > 0 && e.renderer.FrameNumber() >= frameLimit {
			core.LogInfo("rendered %d frames, stopping", frameLimit)
			break
		}
	}
	e.clock.Stop()
	return nil
}

// Stop asks Run to return after the current frame. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
}

// Shutdown releases the game, the systems, the renderer and the window, in
// that order. Must be called on the render thread after Run returned.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("game shutdown failed: %s", err)
		}
	}
	if e.systemManager != nil {
		if err := e.systemManager.Shutdown(); err != nil {
			return err
		}
	}
	if err := e.renderer.Shutdown(); err != nil {
		return err
	}
	if e.platform != nil {
		if err := e.platform.Shutdown(); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageShutdown
	return nil
}

func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) CurrentStage() Stage {
	return e.currentStage
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) onResized(width, height uint32) {
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height

	core.LogDebug("Window resize: %d, %d", width, height)

	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if err := e.renderer.OnResize(width, height); err != nil {
		core.LogError("%s", err)
	}
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError("%s", err)
	}
}
