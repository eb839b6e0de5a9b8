package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Dosada05/bracket-engine/brackets"
)

// DocumentStore reads and writes raw tournament files by key.
type DocumentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)

	Put(ctx context.Context, key string, data []byte) error

	Delete(ctx context.Context, key string) error
}

// SourceKind is the persisted form a key refers to, decided by its extension.
type SourceKind int

const (
	SourceDocument SourceKind = iota + 1
	SourceSeed
)

const documentContentType = "application/yaml"

// KindOf maps .yaml/.yml to a document and .txt to a seed.
func KindOf(key string) (SourceKind, error) {
	switch strings.ToLower(path.Ext(key)) {
	case ".yaml", ".yml":
		return SourceDocument, nil
	case ".txt":
		return SourceSeed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedSource, key)
	}
}

// Load reads a tournament from the store. Nothing is returned on failure.
func Load(ctx context.Context, store DocumentStore, key string) (*brackets.Tournament, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrSourceNotFound)
	}
	kind, err := KindOf(key)
	if err != nil {
		return nil, err
	}
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return Parse(kind, data)
}

// Parse builds a tournament from raw bytes of the given kind.
func Parse(kind SourceKind, data []byte) (*brackets.Tournament, error) {
	switch kind {
	case SourceSeed:
		return BuildFromSeed(data)
	case SourceDocument:
		doc, err := DecodeDocument(data)
		if err != nil {
			return nil, err
		}
		return Import(doc)
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedSource, kind)
	}
}

// Save exports the tournament as a YAML document. An empty key is a no-op.
func Save(ctx context.Context, store DocumentStore, key string, t *brackets.Tournament) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if err := CheckSaveKey(key); err != nil {
		return err
	}
	data, err := Encode(t)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, data)
}

// Encode exports and renders the tournament in one step.
func Encode(t *brackets.Tournament) ([]byte, error) {
	return EncodeDocument(Export(t))
}

// CheckSaveKey validates a save destination. Empty keys are valid and mean "do not save".
func CheckSaveKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	kind, err := KindOf(key)
	if err != nil {
		return err
	}
	if kind != SourceDocument {
		return fmt.Errorf("%w: tournaments are saved as .yaml documents, got %q", ErrUnsupportedSource, key)
	}
	return nil
}
