package systems

import (
	"github.com/spaghettifunk/gridmesh/engine/assets"
	"github.com/spaghettifunk/gridmesh/engine/containers"
	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/renderer"
)

type SystemManagerConfig struct {
	// AssetsDir is indexed at startup. Empty skips indexing.
	AssetsDir string
	// WatchAssets enables shader hot reload.
	WatchAssets      bool
	MaxShaderCount   uint16
	MaxGeometryCount uint32
	MaxCameraCount   uint16
	// ReloadQueueSize bounds pending reload requests.
	ReloadQueueSize int
}

type SystemManager struct {
	assetManager   *assets.AssetManager
	cameraSystem   *CameraSystem
	geometrySystem *GeometrySystem
	shaderSystem   *ShaderSystem

	reloads *containers.RingQueue[string]
}

func NewSystemManager(r *renderer.Renderer, config SystemManagerConfig) (*SystemManager, error) {
	if config.ReloadQueueSize <= 0 {
		config.ReloadQueueSize = 64
	}
	reloads := containers.NewRingQueue[string](config.ReloadQueueSize)

	am, err := assets.NewAssetManager(reloads)
	if err != nil {
		return nil, err
	}
	if config.AssetsDir != "" {
		if err := am.Initialize(config.AssetsDir, config.WatchAssets); err != nil {
			_ = am.Shutdown()
			return nil, err
		}
	}

	cs, err := NewCameraSystem(&CameraSystemConfig{
		MaxCameraCount: config.MaxCameraCount,
	})
	if err != nil {
		_ = am.Shutdown()
		return nil, err
	}
	ss, err := NewShaderSystem(&ShaderSystemConfig{
		MaxShaderCount: config.MaxShaderCount,
	}, am, r)
	if err != nil {
		_ = am.Shutdown()
		return nil, err
	}
	gs, err := NewGeometrySystem(&GeometrySystemConfig{
		MaxGeometryCount: config.MaxGeometryCount,
	}, r)
	if err != nil {
		_ = am.Shutdown()
		return nil, err
	}
	return &SystemManager{
		assetManager:   am,
		cameraSystem:   cs,
		geometrySystem: gs,
		shaderSystem:   ss,
		reloads:        reloads,
	}, nil
}

func (sm *SystemManager) AssetManager() *assets.AssetManager {
	return sm.assetManager
}

func (sm *SystemManager) CameraSystem() *CameraSystem {
	return sm.cameraSystem
}

func (sm *SystemManager) GeometrySystem() *GeometrySystem {
	return sm.geometrySystem
}

func (sm *SystemManager) ShaderSystem() *ShaderSystem {
	return sm.shaderSystem
}

// Reloads is the queue the asset watcher reports modified shader files to.
func (sm *SystemManager) Reloads() *containers.RingQueue[string] {
	return sm.reloads
}

// ProcessReloads recompiles the shaders whose sources changed since the last
// call. Must run on the render thread. Failed rebuilds keep the previous
// program and are only logged.
func (sm *SystemManager) ProcessReloads() int {
	count := 0
	seen := make(map[string]bool)
	for _, path := range sm.reloads.Drain() {
		// editors often write a file more than once per save
		if seen[path] {
			continue
		}
		seen[path] = true
		names, err := sm.shaderSystem.ReloadPath(path)
		if err != nil {
			core.LogError("hot reload of '%s' failed: %s", path, err)
		}
		for _, name := range names {
			core.LogInfo("shader '%s' reloaded from '%s'", name, path)
		}
		count += len(names)
	}
	return count
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.assetManager.Shutdown(); err != nil {
		return err
	}
	if err := sm.geometrySystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.shaderSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.cameraSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
