package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrOutput marks a failure to write the result file. Fatal: the run
// exits non-zero so the caller knows no document was produced.
var ErrOutput = errors.New("output error")

// Write serializes the document to path as indented UTF-8 JSON, creating
// parent directories as needed.
func Write(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding document: %v", ErrOutput, err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrOutput, dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrOutput, path, err)
	}

	slog.Info("Result written", "path", path, "size_kb", fmt.Sprintf("%.1f", float64(len(data))/1024))
	return nil
}
