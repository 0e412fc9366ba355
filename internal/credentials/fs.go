package credentials

import (
	"context"

	"github.com/dvcrn/gauth-proxy/internal/auth"
)

// FSSource reads an authorized-user JSON file. Path may also be a URL
// understood by the afs file system.
type FSSource struct {
	Path string
}

func NewFSSource(path string) *FSSource {
	return &FSSource{Path: path}
}

func (f *FSSource) Name() string {
	return f.Path
}

func (f *FSSource) Load(ctx context.Context) (map[string]interface{}, error) {
	return auth.InfoReader(ctx, f.Path)
}
