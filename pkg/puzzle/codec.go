package puzzle

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Encode writes d as JSON, gzip-compressed when compress is set.
func Encode(w io.Writer, d *Description, compress bool) error {
	if !compress {
		return json.NewEncoder(w).Encode(d)
	}
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(d); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Decode reads a description written by Encode. Compression is detected
// from the stream's magic bytes.
func Decode(r io.Reader) (*Description, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("puzzle: gzip: %w", err)
		}
		defer zr.Close()
		src = zr
	}
	var d Description
	if err := json.NewDecoder(src).Decode(&d); err != nil {
		return nil, fmt.Errorf("puzzle: decode: %w", err)
	}
	return &d, nil
}

// FileName returns the file name for a puzzle: NAME.json, or NAME.json.gz
// when compressed.
func FileName(name string, compress bool) string {
	if compress {
		return name + ".json.gz"
	}
	return name + ".json"
}

// Save writes d to path, compressing when path ends in ".gz".
func Save(path string, d *Description) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("puzzle: save: %w", err)
	}
	if err := Encode(f, d, strings.HasSuffix(path, ".gz")); err != nil {
		f.Close()
		return fmt.Errorf("puzzle: save %s: %w", path, err)
	}
	return f.Close()
}

// Load reads a description from path.
func Load(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("puzzle: load: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
