package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps objects as files under <root>/<bucket>/<key>.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at root.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Fetch copies <root>/<bucket>/<key> to dst.
func (s *LocalStore) Fetch(ctx context.Context, bucket, key, dst string) error {
	if err := ctx.Err(); err != nil {
		return fetchError(bucket, key, err)
	}
	src, err := s.objectPath(bucket, key)
	if err != nil {
		return fetchError(bucket, key, err)
	}
	if err := copyFile(src, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %v", ErrObjectNotFound, err)
		}
		return fetchError(bucket, key, err)
	}
	return nil
}

// Store copies src to <root>/<bucket>/<key>.
func (s *LocalStore) Store(ctx context.Context, bucket, key, src string) error {
	if err := ctx.Err(); err != nil {
		return storeError(bucket, key, err)
	}
	dst, err := s.objectPath(bucket, key)
	if err != nil {
		return storeError(bucket, key, err)
	}
	if err := copyFile(src, dst); err != nil {
		return storeError(bucket, key, err)
	}
	return nil
}

func (s *LocalStore) objectPath(bucket, key string) (string, error) {
	key = filepath.FromSlash(key)
	if !filepath.IsLocal(bucket) || !filepath.IsLocal(key) {
		return "", fmt.Errorf("object %s/%s is outside the store root", bucket, key)
	}
	return filepath.Join(s.root, bucket, key), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
