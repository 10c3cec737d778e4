// Package loader turns an uploaded byte stream into a dataset.Table,
// dispatching on the file name suffix.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabex/internal/dataset"
)

// ErrUnsupportedFormat is returned for file names without a registered suffix.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrParse is returned when file content cannot be parsed into a table.
var ErrParse = errors.New("parse error")

// FormatError reports an unsupported file suffix.
type FormatError struct {
	Filename  string
	Ext       string
	Supported []string
}

func (e *FormatError) Error() string {
	ext := e.Ext
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported file format %s for %q (supported: %s)", ext, e.Filename, strings.Join(e.Supported, ", "))
}

func (e *FormatError) Unwrap() error { return ErrUnsupportedFormat }

// ParseError wraps the underlying cause of a failed parse. Line is 1-based
// and zero when unknown.
type ParseError struct {
	Filename string
	Line     int
	Err      error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Filename, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParse) hold for every ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Options controls loading.
type Options struct {
	// MaxRows rejects inputs with more data rows; 0 means unlimited.
	MaxRows int
}

// Format parses one file type into a header and string records.
type Format interface {
	Extensions() []string
	Records(data []byte, opt Options) (header []string, records [][]string, err error)
}

var registry = map[string]Format{}

// Register adds a format for each of its extensions, replacing earlier entries.
func Register(f Format) {
	for _, ext := range f.Extensions() {
		registry[strings.ToLower(ext)] = f
	}
}

// Supported lists the registered extensions in sorted order.
func Supported() []string {
	out := make([]string, 0, len(registry))
	for ext := range registry {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register(csvFormat{})
	Register(xlsxFormat{})
}

// Load parses data according to the suffix of filename.
func Load(data []byte, filename string) (*dataset.Table, error) {
	return LoadWithOptions(data, filename, Options{})
}

// LoadWithOptions is Load with explicit options. It never returns a
// partially populated table.
func LoadWithOptions(data []byte, filename string, opt Options) (*dataset.Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	f, ok := registry[ext]
	if !ok {
		return nil, &FormatError{Filename: filename, Ext: ext, Supported: Supported()}
	}
	header, records, err := f.Records(data, opt)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Filename = filename
			return nil, pe
		}
		return nil, &ParseError{Filename: filename, Err: err}
	}
	if opt.MaxRows > 0 && len(records) > opt.MaxRows {
		return nil, &ParseError{Filename: filename, Err: fmt.Errorf("%d rows exceeds the limit of %d", len(records), opt.MaxRows)}
	}
	t, err := dataset.FromRecords(normalizeHeader(header), records)
	if err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}
	return t, nil
}

// normalizeHeader names blank headers "Unnamed: N" and suffixes duplicates
// with ".1", ".2", ...
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		taken[name] = true
		out[i] = name
	}
	for i, name := range out {
		n := seen[name]
		seen[name] = n + 1
		if n == 0 {
			continue
		}
		cand := fmt.Sprintf("%s.%d", name, n)
		for taken[cand] {
			n++
			cand = fmt.Sprintf("%s.%d", name, n)
		}
		seen[name] = n + 1
		taken[cand] = true
		out[i] = cand
	}
	return out
}

// padRecords pads short records and widens the header when a record is
// longer, so every record matches the header length.
func padRecords(header []string, records [][]string) ([]string, [][]string) {
	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	for len(header) < width {
		header = append(header, "")
	}
	for i, rec := range records {
		if len(rec) < width {
			tmp := make([]string, width)
			copy(tmp, rec)
			records[i] = tmp
		}
	}
	return header, records
}
