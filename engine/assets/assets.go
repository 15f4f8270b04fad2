package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/hellotriangle/engine/assets/loaders"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	// Compiled SPIR-V module.
	AssetTypeShaderBinary
	// GLSL source, compiled by `mage build:shaders`.
	AssetTypeShaderSource
)

type AssetInfo struct {
	Path       string
	Type       AssetType
	LastLoaded time.Time
}

// AssetManager indexes the shader directory and loads modules from it.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager(root string) (*AssetManager, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("asset directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("asset directory `%s` is not a directory", root)
	}

	am := &AssetManager{
		root:    root,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[AssetType]Loader),
		done:    make(chan struct{}),
	}
	am.registerLoader(AssetTypeShaderBinary, &loaders.BinaryLoader{})

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			am.handleFileEvent(path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	core.LogDebug("asset manager indexed %d file(s) under `%s`", len(am.assets), root)
	return am, nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadShader reads and decodes the compiled shader `name` from the asset
// directory.
func (am *AssetManager) LoadShader(name string) (*loaders.Resource, error) {
	path := filepath.Join(am.root, name)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if !exists {
		// the file may have been compiled after startup
		if _, err := os.Stat(path); err != nil {
			am.mutex.Unlock()
			return nil, fmt.Errorf("asset not found: %w", err)
		}
		asset = AssetInfo{Path: path, Type: determineAssetType(path)}
	}
	asset.LastLoaded = time.Now()
	am.assets[path] = asset
	am.mutex.Unlock()

	if asset.Type != AssetTypeShaderBinary {
		return nil, fmt.Errorf("asset `%s` is not a compiled shader", path)
	}
	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", asset.Type)
	}
	return loader.Load(path)
}

// UnloadShader releases the words of a shader returned by LoadShader.
func (am *AssetManager) UnloadShader(res *loaders.Resource) error {
	if res == nil {
		return nil
	}
	assetType := determineAssetType(res.FullPath)
	loader, ok := am.loaders[assetType]
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %d", assetType)
	}
	return loader.Unload(res)
}

// Assets returns a snapshot of the indexed files.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	out := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		out = append(out, a)
	}
	return out
}

// Watch reports creations and writes of shader files under the asset
// directory. onChange runs on the watcher goroutine.
func (am *AssetManager) Watch(onChange func(AssetInfo)) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	if am.fsnotify != nil {
		return errors.New("asset manager is already watching")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.fsnotify = w
	if err := am.watchRecursive(am.root); err != nil {
		w.Close()
		am.fsnotify = nil
		return err
	}

	am.wg.Add(1)
	go am.start(onChange)
	return nil
}

// Close stops the watcher, if any. Safe to call more than once.
func (am *AssetManager) Close() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	am.wg.Wait()
	return nil
}

func (am *AssetManager) start(onChange func(AssetInfo)) {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Has(fsnotify.Create) {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("unable to watch `%s`: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
				if info, ok := am.handleFileEvent(e.Name); ok && onChange != nil {
					onChange(info)
				}
			}
			if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	info := am.assets[path]
	info.Path = path
	info.Type = assetType
	am.assets[path] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".spv":
		return AssetTypeShaderBinary
	case ".vert", ".frag", ".glsl":
		return AssetTypeShaderSource
	default:
		return AssetTypeNone
	}
}
