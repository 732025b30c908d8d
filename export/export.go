package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonwraymond/datasentry/check"
)

// Format selects the export encoding.
type Format int

const (
	// FormatCSV writes Description,Type,Status,Result rows.
	FormatCSV Format = iota + 1
	// FormatJSON writes an indented array of check objects.
	FormatJSON
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ContentType returns the HTTP media type of the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// ParseFormat resolves a format name. Matching is case-insensitive.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Row is one exported check.
type Row struct {
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Result      any       `json:"result"`
	LastRunAt   time.Time `json:"lastRunAt,omitzero"`
	Message     string    `json:"message,omitempty"`
}

// Rows converts snapshots to export rows. Records that never ran carry a
// nil result.
func Rows(snaps []check.Snapshot) []Row {
	rows := make([]Row, len(snaps))
	for i, s := range snaps {
		rows[i] = Row{
			Description: s.Description,
			Type:        s.Type,
			Status:      s.Status,
			LastRunAt:   s.LastRunAt,
			Message:     s.Message,
		}
		if s.HasResult {
			rows[i].Result = finite(s.Result)
		}
	}
	return rows
}

// finite replaces non-finite floats nested in v with their string form.
func finite(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
		return x
	case float32:
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 32)
		}
		return x
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = finite(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(x))
		for i, m := range x {
			out[i] = finite(m).(map[string]any)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = finite(e)
		}
		return out
	default:
		return v
	}
}

// Export writes snaps to w in format f.
func Export(w io.Writer, snaps []check.Snapshot, f Format) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, Rows(snaps))
	case FormatJSON:
		return writeJSON(w, Rows(snaps))
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFormat, int(f))
	}
}

// ExportFile writes the registry to path, choosing the format from the
// extension. The registry is only read. The document is encoded before the
// file is created, so an encoding failure leaves an existing file intact.
func ExportFile(path string, reg *check.Registry) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Export(&buf, reg.Snapshots(), f); err != nil {
		return fmt.Errorf("%w: %v", ErrExportIO, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExportIO, err)
	}
	if _, err := buf.WriteTo(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: %v", ErrExportIO, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrExportIO, err)
	}
	return nil
}

// StatusMessage renders the outcome of ExportFile for display.
func StatusMessage(path string, err error) string {
	if err != nil {
		return "Export failed: " + err.Error()
	}
	return "Results exported successfully to " + filepath.Base(path)
}

// DefaultFileName suggests an export file name for the given time.
func DefaultFileName(at time.Time, f Format) string {
	return fmt.Sprintf("check-results-%s.%s", at.Format("20060102-150405"), f)
}

func writeCSV(w io.Writer, rows []Row) error {
	if _, err := io.WriteString(w, "Description,Type,Status,Result\n"); err != nil {
		return err
	}
	for _, r := range rows {
		result, err := resultText(r.Result)
		if err != nil {
			return err
		}
		line := strings.Join([]string{
			quote(r.Description),
			quote(r.Type),
			quote(r.Status),
			quote(result),
		}, ",")
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// quote wraps v in double quotes, doubling embedded quotes.
func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func resultText(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
