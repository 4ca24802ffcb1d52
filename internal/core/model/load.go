package model

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"os"

	perr "auracast/internal/platform/errors"
)

//go:embed weights/default.json
var embedded []byte

// file is the on-disk layout: spec fields inline, params alongside
type file struct {
	Spec
	Params
}

// Load decodes the weights compiled into the binary
func Load() (*Model, error) {
	return Decode(bytes.NewReader(embedded))
}

// MustLoad is Load for tests and tools that cannot run without the default model
func MustLoad() *Model {
	m, err := Load()
	if err != nil {
		panic(err)
	}
	return m
}

// LoadFile decodes an operator supplied weights file; empty path means the embedded weights
func LoadFile(path string) (*Model, error) {
	if path == "" {
		return Load()
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "open weights %s", path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "open weights %s", path)
	}
	defer func() { _ = f.Close() }()
	m, err := Decode(f)
	if err != nil {
		return nil, perr.WithOp(err, "load "+path)
	}
	return m, nil
}

// Decode reads one weights document and validates it
func Decode(r io.Reader) (*Model, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc file
	if err := dec.Decode(&doc); err != nil {
		return nil, perr.JSONErrf("decode weights: %v", err)
	}
	return New(doc.Spec, doc.Params)
}

// Encode writes m in the layout Decode reads
func Encode(w io.Writer, m *Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	return enc.Encode(file{Spec: m.Spec(), Params: copyParams(m.params)})
}
