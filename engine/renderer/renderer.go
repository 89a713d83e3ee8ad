package renderer

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/gridmesh/engine/core"
)

type RendererType uint8

const (
	OpenGL RendererType = iota
	Headless
)

func (t RendererType) String() string {
	switch t {
	case OpenGL:
		return "opengl"
	case Headless:
		return "headless"
	default:
		return "unknown"
	}
}

// ParseRendererType maps the configuration name to a RendererType.
func ParseRendererType(s string) (RendererType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "opengl", "gl":
		return OpenGL, nil
	case "headless", "none":
		return Headless, nil
	default:
		return 0, fmt.Errorf("unknown renderer backend '%s'", s)
	}
}

// Renderer is the frontend the systems hold on to. It forwards GPU calls to
// the selected backend and owns its lifecycle.
type Renderer struct {
	RendererBackend
	kind        RendererType
	initialized bool
	frameNumber uint64
}

func New(kind RendererType, backend RendererBackend) *Renderer {
	return &Renderer{
		RendererBackend: backend,
		kind:            kind,
	}
}

func (r *Renderer) Type() RendererType {
	return r.kind
}

func (r *Renderer) Initialize(appName string, appWidth, appHeight uint32) error {
	if err := r.RendererBackend.Initialize(appName, appWidth, appHeight); err != nil {
		core.LogError("renderer backend '%s' failed to initialize: %s", r.kind, err)
		return err
	}
	r.initialized = true
	core.LogInfo("renderer backend '%s' initialized (%dx%d)", r.kind, appWidth, appHeight)
	return nil
}

func (r *Renderer) Shutdown() error {
	if !r.initialized {
		return nil
	}
	r.initialized = false
	return r.RendererBackend.Shutdown()
}

func (r *Renderer) OnResize(width, height uint32) error {
	return r.Resized(width, height)
}

// DrawFrame brackets fn between BeginFrame and EndFrame.
func (r *Renderer) DrawFrame(deltaTime float64, fn func() error) error {
	if !r.initialized {
		return core.ErrBackendNotReady
	}
	if err := r.BeginFrame(deltaTime); err != nil {
		core.LogError("RendererBeginFrame failed: %s", err)
		return err
	}
	if fn != nil {
		if err := fn(); err != nil {
			core.LogError("frame render failed: %s", err)
			_ = r.EndFrame(deltaTime)
			return err
		}
	}
	if err := r.EndFrame(deltaTime); err != nil {
		core.LogError("RendererEndFrame failed. Application shutting down...")
		return err
	}
	r.frameNumber++
	return nil
}

// FrameNumber returns the count of frames completed through DrawFrame.
func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}
