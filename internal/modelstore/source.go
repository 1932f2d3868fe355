package modelstore

import (
	"context"
	"fmt"
	"os"
)

// FileSource reads the artifact from disk
type FileSource struct {
	path string
}

// NewFileSource creates a source for the artifact at path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch reads the whole file
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return data, nil
}

// Name returns the file path
func (s *FileSource) Name() string {
	return s.path
}

// BytesSource serves an artifact that is already in memory
type BytesSource struct {
	name string
	data []byte
}

// NewBytesSource wraps data as a model source
func NewBytesSource(name string, data []byte) *BytesSource {
	return &BytesSource{name: name, data: data}
}

// Fetch returns the wrapped bytes
func (s *BytesSource) Fetch(ctx context.Context) ([]byte, error) {
	return s.data, ctx.Err()
}

// Name returns the label given at construction
func (s *BytesSource) Name() string {
	return s.name
}
