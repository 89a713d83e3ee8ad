package testbed

import (
	"fmt"

	"github.com/spaghettifunk/gridmesh/engine"
	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/math"
	"github.com/spaghettifunk/gridmesh/engine/renderer/components"
	"github.com/spaghettifunk/gridmesh/engine/systems"
)

// GridGame renders a single procedural grid seen from an optionally orbiting
// camera.
type GridGame struct {
	*engine.Game
}

type gameState struct {
	WorldCamera *components.Camera
	Grid        *systems.GridMesh

	width  uint32
	height uint32
}

func NewGridGame(config *engine.ApplicationConfig) *GridGame {
	if config == nil {
		config = engine.DefaultApplicationConfig()
	}
	g := &GridGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}

	g.FnInitialize = g.Initialize
	g.FnUpdate = g.Update
	g.FnRender = g.Render
	g.FnOnResize = g.OnResize
	g.FnShutdown = g.Shutdown

	return g
}

func (g *GridGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *GridGame) Initialize() error {
	core.LogInfo("initializing grid testbed...")
	config := g.ApplicationConfig
	state := g.state()

	state.WorldCamera = g.SystemManager.CameraSystem().GetDefault()
	state.WorldCamera.SetViewFor(math.Vec3(config.Camera.Position), config.Camera.Theta, config.Camera.Phi)
	state.WorldCamera.OrbitSpeed = config.Camera.OrbitSpeed

	grid := systems.NewGridMesh(g.Renderer, g.SystemManager.ShaderSystem(), g.SystemManager.GeometrySystem())
	grid.SetUniformName(config.Grid.Uniform)
	if shader := g.loadShader(); shader != "" && shader == config.Grid.Shader {
		grid.SetShader(shader)
	}
	// compiles the built-in program when the grid still points at it
	if err := grid.Init(); err != nil {
		return err
	}
	if err := grid.Generate(config.Grid.Rows, config.Grid.Cols); err != nil {
		return fmt.Errorf("failed to generate the %dx%d grid: %w", config.Grid.Rows, config.Grid.Cols, err)
	}
	state.Grid = grid
	state.WorldCamera.Pivot = grid.Geometry.Center

	core.Logger().Info("grid ready", "rows", grid.Rows, "cols", grid.Cols, "shader", grid.ShaderName(), "uniform", grid.UniformName())
	return nil
}

// loadShader compiles the shader files named in the configuration and
// returns the registered name, or "" when they could not be used.
func (g *GridGame) loadShader() string {
	shaders := g.ApplicationConfig.Shaders
	if shaders.Name == "" || shaders.Vertex == "" || shaders.Fragment == "" {
		return ""
	}
	if _, err := g.SystemManager.ShaderSystem().CompileFiles(shaders.Name, shaders.Vertex, shaders.Fragment); err != nil {
		core.LogWarn("falling back to the built-in grid shader: %s", err)
		return ""
	}
	return shaders.Name
}

func (g *GridGame) Update(deltaTime float64) error {
	g.state().WorldCamera.Update(deltaTime)
	return nil
}

func (g *GridGame) Render(deltaTime float64) error {
	state := g.state()
	camera := g.ApplicationConfig.Camera

	aspect := float32(1)
	if state.height > 0 {
		aspect = float32(state.width) / float32(state.height)
	}
	state.WorldCamera.SetPerspective(math.DegToRad(camera.FOV), aspect, camera.Near, camera.Far)
	state.Grid.Draw(state.WorldCamera.Transform())
	return nil
}

func (g *GridGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width = width
	state.height = height
	return nil
}

func (g *GridGame) Shutdown() error {
	state := g.state()
	if state.Grid != nil {
		state.Grid.Destroy()
		state.Grid = nil
	}
	return nil
}
