package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// BlobStore keeps opaque image bytes under a reference such as
// "2024-03-01/p2-0.png".
type BlobStore struct {
	dir string
}

func NewBlobStore(dir string) *BlobStore {
	return &BlobStore{dir: dir}
}

func (b *BlobStore) path(ref string) (string, error) {
	if ref == "" || !filepath.IsLocal(ref) {
		return "", fmt.Errorf("blob ref %q: %w", ref, errInvalidRef)
	}
	return filepath.Join(b.dir, filepath.FromSlash(ref)), nil
}

var errInvalidRef = errors.New("invalid blob reference")

// Put stores data under ref. An existing blob is kept untouched and reported
// with created=false.
func (b *BlobStore) Put(ctx context.Context, ref string, data []byte) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	p, err := b.path(ref)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("blob put %s: %w", ref, err)
	}
	if err := writeAtomic(p, data); err != nil {
		return false, fmt.Errorf("blob put %s: %w", ref, err)
	}
	return true, nil
}
