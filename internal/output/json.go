// Package output writes access reports to disk in CSV and JSON form.
//
// Writes are atomic (temp file + fsync + rename) so a crash mid-write
// never leaves a truncated report behind.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/JHAAdmins/gh-collab-audit/internal/audit"
)

// fileMu serializes file writes so concurrent writers cannot interleave
// on the same path.
var fileMu sync.Mutex

// WriteJSON writes the full report as pretty-printed JSON at path.
func WriteJSON(path string, report *audit.Report) error {
	return writeAtomic(path, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	})
}

// writeAtomic writes through a temp file and renames it into place.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	fileMu.Lock()
	defer fileMu.Unlock()

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp file %s: %w", tmp, err)
	}

	// Ensure cleanup on error
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = write(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	if err = file.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmp, err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}

	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	return nil
}
