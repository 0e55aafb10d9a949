package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Line is a decoded record whose payload is left raw.
type Line struct {
	Tick int             `json:"tick"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ReadFile decodes every record of a log written by Writer and calls fn in
// file order. fn returning false stops the scan.
func ReadFile(path string, fn func(Line) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	n := 0
	for sc.Scan() {
		n++
		var line Line
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			return fmt.Errorf("%s:%d: unmarshal: %w", filepath.Base(path), n, err)
		}
		if !fn(line) {
			return nil
		}
	}
	return sc.Err()
}
