package assets

import "github.com/spaghettifunk/hellotriangle/engine/assets/loaders"

type Loader interface {
	Load(path string) (*loaders.Resource, error)
	Unload(*loaders.Resource) error
}
