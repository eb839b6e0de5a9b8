package storage

import "errors"

var (
	ErrUnsupportedSource = errors.New("unsupported tournament source")
	ErrSourceNotFound    = errors.New("tournament source not found")
	ErrUnsupportedType   = errors.New("unsupported tournament type")
	ErrMalformedSeed     = errors.New("malformed seed file")
	ErrMalformedDocument = errors.New("malformed tournament document")
)
