package assets

import "github.com/spaghettifunk/lovevk/engine/renderer/resource"

// Loader reads one kind of asset from disk.
type Loader interface {
	Inspect(path string) (resource.SourceInfo, error)
	Decode(path string, channels int) ([]byte, error)
}
