package core

import (
	"context"
	"io"
)

// FileService stores uploaded media and returns a URL that can be served back
// to clients.
type FileService interface {
	// Upload stores src under dir/filename and returns the public URL.
	Upload(ctx context.Context, dir, filename string, src io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}
