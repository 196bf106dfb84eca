// Package blob binds feed entries to attachment blobs.
package blob

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

// Store is the persistence capability attachments are written to. The blob
// may be deleted out-of-band at any time, so callers re-check existence at
// resolve time instead of caching it.
type Store interface {
	Put(ctx context.Context, ref string, contentType string, r io.Reader) error
	Exists(ctx context.Context, ref string) (bool, error)
	OpenForRead(ctx context.Context, ref string) (io.ReadCloser, error)
}
