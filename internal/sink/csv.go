// Append-only CSV files for scraped records and the per-keyword run log

package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Directive tells spreadsheet tools which delimiter the file uses.
const Directive = "SEP=,"

// TimeLayout is used for every timestamp column.
const TimeLayout = "2006-01-02 15:04:05.000000"

// csvFile is an open CSV file that is flushed and synced after every batch.
type csvFile struct {
	f *os.File
	w *csv.Writer
}

// openCSV opens path for appending. A new (or empty) file gets the delimiter
// directive and the header row first.
func openCSV(path string, header []string) (*csvFile, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory for %s: %w", path, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	c := &csvFile{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if _, err := io.WriteString(f, Directive+"\n"); err != nil {
			f.Close()
			return nil, fmt.Errorf("write directive: %w", err)
		}
		if err := c.w.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		if err := c.Flush(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *csvFile) write(row []string) error {
	return c.w.Write(row)
}

// Flush pushes buffered rows to the OS and syncs them to disk.
func (c *csvFile) Flush() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", c.f.Name(), err)
	}
	if err := c.f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", c.f.Name(), err)
	}
	return nil
}

func (c *csvFile) Close() error {
	return errors.Join(c.Flush(), c.f.Close())
}

func (c *csvFile) Path() string {
	return c.f.Name()
}

// FileNames returns the output and log file names for a run started at t,
// e.g. output_05_03_2024_14_30.csv and log_05_03_2024_14_30.csv.
func FileNames(dir string, t time.Time) (output, runLog string) {
	stamp := t.Format("02_01_2006_15_04")
	return filepath.Join(dir, "output_"+stamp+".csv"), filepath.Join(dir, "log_"+stamp+".csv")
}
