package engine

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/renderer"
)

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name     string `toml:"name"`
	LogLevel string `toml:"log_level"`
	// Frames stops the engine after that many frames. 0 runs until stopped.
	Frames uint64 `toml:"frames"`

	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Grid     GridConfig     `toml:"grid"`
	Shaders  ShadersConfig  `toml:"shaders"`
	Camera   CameraConfig   `toml:"camera"`
	Systems  SystemsConfig  `toml:"systems"`
}

type WindowConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"height"`
	VSync       bool   `toml:"vsync"`
}

type RendererConfig struct {
	// Backend is "opengl" or "headless".
	Backend     string     `toml:"backend"`
	ClearColour [3]float32 `toml:"clear_colour"`
	// HeadlessMemoryBudget caps buffer storage in bytes on the headless backend. 0 is unlimited.
	HeadlessMemoryBudget uint64 `toml:"headless_memory_budget"`
}

type GridConfig struct {
	Rows    uint32 `toml:"rows"`
	Cols    uint32 `toml:"cols"`
	Shader  string `toml:"shader"`
	Uniform string `toml:"uniform"`
}

type ShadersConfig struct {
	Name     string `toml:"name"`
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
	// Directory indexed by the asset manager.
	Directory string `toml:"directory"`
	Watch     bool   `toml:"watch"`
}

type CameraConfig struct {
	Position   [3]float32 `toml:"position"`
	Theta      float32    `toml:"theta"`
	Phi        float32    `toml:"phi"`
	FOV        float32    `toml:"fov"`
	Near       float32    `toml:"near"`
	Far        float32    `toml:"far"`
	OrbitSpeed float32    `toml:"orbit_speed"`
}

type SystemsConfig struct {
	MaxShaderCount   uint16 `toml:"max_shader_count"`
	MaxGeometryCount uint32 `toml:"max_geometry_count"`
	MaxCameraCount   uint16 `toml:"max_camera_count"`
	ReloadQueueSize  int    `toml:"reload_queue_size"`
}

// DefaultApplicationConfig returns the configuration used when no file is given.
func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:     "Grid Mesh",
		LogLevel: string(core.LogLevelInfo),
		Window: WindowConfig{
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
			VSync:       true,
		},
		Renderer: RendererConfig{
			Backend:     renderer.OpenGL.String(),
			ClearColour: [3]float32{0.25, 0.25, 0.25},
		},
		Grid: GridConfig{
			Rows:    100,
			Cols:    100,
			Shader:  "DefaultShader",
			Uniform: "projectionViewWorldMatrix",
		},
		Shaders: ShadersConfig{
			Name:      "DefaultShader",
			Vertex:    "assets/shaders/basic.vert",
			Fragment:  "assets/shaders/basic.frag",
			Directory: "assets",
			Watch:     true,
		},
		Camera: CameraConfig{
			Position: [3]float32{0, 10, -10},
			Theta:    90,
			Phi:      -45,
			FOV:      45,
			Near:     0.1,
			Far:      1000,
		},
		Systems: SystemsConfig{
			MaxShaderCount:   16,
			MaxGeometryCount: 16,
			MaxCameraCount:   8,
			ReloadQueueSize:  64,
		},
	}
}

// LoadConfig reads a TOML file on top of the defaults. Keys missing from the
// file keep their default value.
func LoadConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config '%s': %w", path, err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values that would otherwise only fail deep inside a system.
func (c *ApplicationConfig) Validate() error {
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := renderer.ParseRendererType(c.Renderer.Backend); err != nil {
		return err
	}
	if c.Grid.Rows < 2 || c.Grid.Cols < 2 {
		return fmt.Errorf("grid %dx%d: %w", c.Grid.Rows, c.Grid.Cols, core.ErrInvalidDimensions)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera planes near=%g far=%g are invalid", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera fov %g must be within (0, 180) degrees", c.Camera.FOV)
	}
	return nil
}

// Encode writes the configuration as TOML.
func (c *ApplicationConfig) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
