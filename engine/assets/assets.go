package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/gridmesh/engine/assets/loaders"
	"github.com/spaghettifunk/gridmesh/engine/containers"
	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes the files under the asset directory, loads them on
// request and, when watching, reports modified shader sources through the
// reload queue. The watcher goroutine never calls into the renderer.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	watching bool
	reloads  *containers.RingQueue[string]
}

func NewAssetManager(reloads *containers.RingQueue[string]) (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		reloads:  reloads,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeText, &loaders.TextLoader{})

	return am, nil
}

// Initialize indexes assetsDir. With watch set, changes below it are
// tracked until Shutdown.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	if watch {
		am.watching = true
		go am.start()
	}

	if err := am.addRecursive(assetsDir, watch); err != nil {
		return err
	}
	core.LogInfo("asset manager indexed %d assets under '%s' (watch=%t)", am.Count(), assetsDir, watch)
	return nil
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	if am.watching {
		<-am.stopped
	}
	return am.fsnotify.Close()
}

// addRecursive indexes the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string, watch bool) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	return am.watchRecursive(name, watch)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset reads the file at path with the loader registered for its type.
// Paths outside the indexed directory are loaded too, so configuration can
// point anywhere.
func (am *AssetManager) LoadAsset(path string, params interface{}) (*metadata.Resource, error) {
	path = filepath.Clean(path)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if !exists {
		asset = AssetInfo{Path: path, Type: determineAssetType(path)}
	}
	if asset.Type == metadata.ResourceTypeNone {
		am.mutex.Unlock()
		return nil, fmt.Errorf("unknown asset type for '%s'", path)
	}
	// Update the loaded time
	asset.LastLoaded = time.Now()
	am.assets[path] = asset
	loader, loaderExists := am.loaders[asset.Type]
	am.mutex.Unlock()

	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", asset.Type)
	}
	return loader.Load(path, asset.Type, params)
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	am.mutex.RLock()
	loader, ok := am.loaders[asset.Type]
	am.mutex.RUnlock()
	if !ok {
		return nil
	}
	return loader.Unload(asset)
}

// Count returns the number of indexed assets.
func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Info returns the index entry of path.
func (am *AssetManager) Info(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.Clean(path)]
	return info, ok
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, true); err != nil {
						core.LogWarn("failed to watch '%s': %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if am.handleFileEvent(e.Name) == metadata.ResourceTypeShader {
					am.requestReload(e.Name)
				}
			}
			// Can't stat a deleted path, so pretend that it's always a directory and
			// try to remove it from the watch list.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", e)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) requestReload(path string) {
	if am.reloads == nil {
		return
	}
	if err := am.reloads.Enqueue(filepath.Clean(path)); err != nil {
		core.LogWarn("dropping reload of '%s': %s", path, err)
	}
}

// watchRecursive indexes all files under the given path and, with watch set,
// adds every directory to the watch list.
func (am *AssetManager) watchRecursive(path string, watch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if watch {
				return am.fsnotify.Add(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) metadata.ResourceType {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return assetType
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	path = filepath.Clean(path)
	am.assets[path] = AssetInfo{
		Path: path,
		Type: assetType,
	}
	return assetType
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func determineAssetType(path string) metadata.ResourceType {
	switch filepath.Ext(path) {
	case ".vert", ".frag", ".glsl":
		return metadata.ResourceTypeShader
	case ".txt":
		return metadata.ResourceTypeText
	default:
		return metadata.ResourceTypeNone
	}
}
