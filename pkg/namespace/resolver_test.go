package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevol/mds/pkg/store"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		want     []string
		wantCode StatusCode
	}{
		{name: "empty string is root", path: "", want: nil, wantCode: StatusOK},
		{name: "slash is root", path: "/", want: nil, wantCode: StatusOK},
		{name: "single component", path: "/a", want: []string{"a"}, wantCode: StatusOK},
		{name: "nested", path: "/a/b/c", want: []string{"a", "b", "c"}, wantCode: StatusOK},
		{name: "relative rejected", path: "a/b", wantCode: StatusParamError},
		{name: "trailing slash rejected", path: "/a/", wantCode: StatusParamError},
		{name: "double slash rejected", path: "/a//b", wantCode: StatusParamError},
		{name: "dot rejected", path: "/a/./b", wantCode: StatusParamError},
		{name: "dotdot rejected", path: "/a/../b", wantCode: StatusParamError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, code := splitPath(tt.path)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantCode == StatusOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLookupParentWalk(t *testing.T) {
	// /a/b/file: the walk loads a and b, both directories, and hands back
	// b with the last component still unresolved.
	a := dirInfo(2)
	b := dirInfo(3)
	var keys []string
	st := &mockStore{
		getFile: func(parentID uint64, fileName string) (*store.FileInfo, store.Status) {
			keys = append(keys, fileName)
			switch fileName {
			case "a":
				require.Equal(t, RootInodeID, parentID)
				copied := a
				return &copied, store.StatusOK
			case "b":
				require.Equal(t, a.ID, parentID)
				copied := b
				return &copied, store.StatusOK
			default:
				return nil, store.StatusKeyNotExist
			}
		},
	}
	core := newTestCore(st, &mockIDGenerator{}, &mockAllocator{}, &mockCleaner{})

	parent, lastEntry, code := core.lookupParent("/a/b/file")
	require.Equal(t, StatusOK, code)
	assert.Equal(t, b.ID, parent.ID)
	assert.Equal(t, "file", lastEntry)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestLookupParentOfRoot(t *testing.T) {
	core := newTestCore(&mockStore{}, &mockIDGenerator{}, &mockAllocator{}, &mockCleaner{})
	_, _, code := core.lookupParent("/")
	assert.Equal(t, StatusParamError, code)
}
