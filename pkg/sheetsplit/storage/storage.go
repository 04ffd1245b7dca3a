// Package storage fetches and stores objects addressed by bucket and key.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Store is the object storage collaborator of an invocation.
type Store interface {
	// Fetch downloads bucket/key into the local file dst, creating parent directories.
	Fetch(ctx context.Context, bucket, key, dst string) error
	// Store uploads the local file src to bucket/key.
	Store(ctx context.Context, bucket, key, src string) error
}

// ErrFetch indicates a failed download.
var ErrFetch = errors.New("storage fetch failed")

// ErrStore indicates a failed upload.
var ErrStore = errors.New("storage store failed")

// ErrObjectNotFound indicates the requested object or its bucket does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Op names a storage operation.
type Op string

const (
	OpFetch Op = "fetch"
	OpStore Op = "store"
)

// Error represents a failed storage operation on one object.
type Error struct {
	Op     Op
	Bucket string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrFetch or ErrStore according to Op.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrFetch:
		return e.Op == OpFetch
	case ErrStore:
		return e.Op == OpStore
	}
	return false
}

func fetchError(bucket, key string, err error) error {
	return &Error{Op: OpFetch, Bucket: bucket, Key: key, Err: err}
}

func storeError(bucket, key string, err error) error {
	return &Error{Op: OpStore, Bucket: bucket, Key: key, Err: err}
}
