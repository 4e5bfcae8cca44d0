package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// OutputManager appends window stats to a CSV file under the output
// directory. The header is written once, on the first append.
type OutputManager struct {
	file        *os.File
	wroteHeader bool
}

// NewOutputManager creates the output directory if needed and opens the
// stats file for appending.
func NewOutputManager(dir string) (*OutputManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: creating output dir: %w", err)
	}
	path := filepath.Join(dir, "telemetry.csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: opening %s: %w", path, err)
	}
	return &OutputManager{file: f}, nil
}

// Append writes one stats row.
func (m *OutputManager) Append(ws WindowStats) error {
	rows := []WindowStats{ws}
	var err error
	if m.wroteHeader {
		err = gocsv.MarshalWithoutHeaders(&rows, m.file)
	} else {
		err = gocsv.Marshal(&rows, m.file)
		m.wroteHeader = true
	}
	if err != nil {
		return fmt.Errorf("telemetry: writing stats row: %w", err)
	}
	return nil
}

// Close flushes and closes the stats file.
func (m *OutputManager) Close() error {
	return m.file.Close()
}
