package loaders

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

type TextLoader struct{}

func (tl *TextLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	if p, ok := params.(map[string]string); ok && p["name"] != "" {
		name = p["name"]
	}

	return &metadata.Resource{
		Name:     name,
		FullPath: path,
		Type:     assetType,
		DataSize: uint64(len(buf)),
		Data:     buf,
	}, nil
}

func (tl *TextLoader) Unload(r *metadata.Resource) error {
	r.Data = nil
	r.DataSize = 0
	return nil
}
