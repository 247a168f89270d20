//go:build !cgo

package store

import "errors"

// KuzuStore is unavailable without CGO.
type KuzuStore struct{ Store }

var errNoCgo = errors.New("kuzu: store requires a cgo-enabled build")

func NewKuzuStore() (*KuzuStore, error) { return nil, errNoCgo }

func NewKuzuFileStore(string) (*KuzuStore, error) { return nil, errNoCgo }
