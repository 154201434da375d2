/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package content

import (
	"context"
	"fmt"
	"os"

	"github.com/Seednode/truthordare/games"
)

// FileProvider reads a YAML or JSON content document from disk.
type FileProvider struct {
	Path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

func (p *FileProvider) Fetch(ctx context.Context) (*games.Catalog, error) {
	doc, err := ReadDocument(p.Path)
	if err != nil {
		return nil, err
	}

	return doc.Catalog()
}

// ReadDocument loads a content document, choosing the format by extension.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}

	return Decode(data, FormatFor(path))
}
