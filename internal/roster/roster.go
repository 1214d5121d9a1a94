// Package roster loads the player names the enrichment tools work on.
package roster

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

const DefaultColumn = "Player Name"

var utf8Bom = []byte{0xEF, 0xBB, 0xBF}

// Load reads the CSV at `path` and returns the unique, non-empty values of
// `column` sorted lexicographically.
func Load(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names, err := Parse(f, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return names, nil
}

// Parse is Load for an already opened CSV stream.
func Parse(r io.Reader, column string) ([]string, error) {
	buffered := bufio.NewReader(r)
	if head, err := buffered.Peek(len(utf8Bom)); err == nil && bytes.Equal(head, utf8Bom) {
		_, _ = buffered.Discard(len(utf8Bom))
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1
	// quotes inside an unquoted field are kept as part of the name
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := slices.Index(header, column)
	if idx < 0 {
		return nil, fmt.Errorf("missing column %q", column)
	}

	set := make(map[string]struct{})
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if idx >= len(record) {
			continue
		}
		name := record[idx]
		if strings.TrimSpace(name) == "" {
			continue
		}
		set[name] = struct{}{}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
