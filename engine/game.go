package engine

import (
	"github.com/spaghettifunk/gridmesh/engine/renderer"
	"github.com/spaghettifunk/gridmesh/engine/systems"
)

// Game is the application driven by the engine. SystemManager and Renderer
// are filled in by engine.New before FnInitialize is called.
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	Renderer          *renderer.Renderer
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render runs between BeginFrame and EndFrame.
type Render func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
