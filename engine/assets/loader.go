package assets

import "github.com/spaghettifunk/gridmesh/engine/renderer/metadata"

type Loader interface {
	// params lets a loader take type-specific options, e.g. a name override
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error)
	Unload(*metadata.Resource) error
}
