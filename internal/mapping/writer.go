// Package mapping holds the per-player fetch outcome and the JSON writer every
// enrichment tool persists its results with.
package mapping

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
)

// Encode renders `m` as two-space indented JSON with keys in lexicographic
// order. Non-ASCII and HTML characters are written as-is.
func Encode[V any](m map[string]V) ([]byte, error) {
	if m == nil {
		m = map[string]V{}
	}
	buff := &bytes.Buffer{}
	enc := json.NewEncoder(buff)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(m)
	if err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// Write persists `m` to `path` in one go, creating the parent directory if needed.
// The file is replaced atomically so a failed write never leaves half a mapping.
func Write[V any](path string, m map[string]V) error {
	contents, err := Encode(m)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(contents)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	err = os.Chmod(tmp.Name(), 0644)
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
