package namespace

import (
	"strings"

	"github.com/pagevol/mds/pkg/store"
)

// splitPath breaks an absolute path into its components.
//
// The empty string and "/" resolve to the root directory (an empty
// component list). Any other path must start with "/", must not end with
// "/", and must not contain empty, "." or ".." components: callers supply
// canonical paths, the resolver does not normalize.
func splitPath(path string) ([]string, StatusCode) {
	if path == "" || path == "/" {
		return nil, StatusOK
	}
	if !strings.HasPrefix(path, "/") {
		return nil, StatusParamError
	}
	if strings.HasSuffix(path, "/") {
		return nil, StatusParamError
	}
	components := strings.Split(path[1:], "/")
	for _, c := range components {
		if c == "" || c == "." || c == ".." {
			return nil, StatusParamError
		}
	}
	return components, StatusOK
}

// lookupParent walks the namespace down to the parent directory of path.
// It returns the parent's descriptor and the last path component.
//
// Resolution is O(depth) store lookups starting at the cached root; every
// intermediate component must exist and be a directory. The walk never
// caches: backends are expected to.
func (c *Core) lookupParent(path string) (*store.FileInfo, string, StatusCode) {
	components, code := splitPath(path)
	if code != StatusOK {
		return nil, "", code
	}
	if len(components) == 0 {
		// Root has no parent to resolve.
		return nil, "", StatusParamError
	}

	parent := c.root
	for _, component := range components[:len(components)-1] {
		fi, status := c.store.GetFile(parent.ID, component)
		switch status {
		case store.StatusOK:
		case store.StatusKeyNotExist:
			return nil, "", StatusFileNotExists
		default:
			return nil, "", StatusStorageError
		}
		if fi.Kind != store.KindDirectory {
			return nil, "", StatusNotDirectory
		}
		parent = fi
	}
	return parent, components[len(components)-1], StatusOK
}

// lookupFile resolves a path to its descriptor. Root is legal and is
// served from the precomputed root descriptor without touching the store.
func (c *Core) lookupFile(path string) (*store.FileInfo, StatusCode) {
	components, code := splitPath(path)
	if code != StatusOK {
		return nil, code
	}
	if len(components) == 0 {
		root := *c.root
		return &root, StatusOK
	}

	parent, lastEntry, code := c.lookupParent(path)
	if code != StatusOK {
		return nil, code
	}
	fi, status := c.store.GetFile(parent.ID, lastEntry)
	switch status {
	case store.StatusOK:
		return fi, StatusOK
	case store.StatusKeyNotExist:
		return nil, StatusFileNotExists
	default:
		return nil, StatusStorageError
	}
}
