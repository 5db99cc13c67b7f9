package provenance

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/quipucords/chaski/pkg/errors"
)

// ReportFile is the report name written by [FileStore] inside the
// dependencies directory.
const ReportFile = "cargo_provenance.json"

// Report is the result of one provenance run.
type Report struct {
	RunID     string    `json:"run_id"`
	Generated time.Time `json:"generated"`
	Records   []Record  `json:"records"`
}

// NewReport wraps records with a fresh run ID.
func NewReport(records []Record) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Generated: time.Now().UTC(),
		Records:   records,
	}
}

// Unknown returns the records whose commit could not be recovered.
func (r *Report) Unknown() []Record {
	var out []Record
	for _, rec := range r.Records {
		if !rec.Known() {
			out = append(out, rec)
		}
	}
	return out
}

// Store persists provenance reports.
type Store interface {
	Save(ctx context.Context, report *Report) error
	Close(ctx context.Context) error
}

// FileStore writes reports as indented JSON to a single file.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the report path.
func (s *FileStore) Path() string { return s.path }

// Save replaces the report file atomically.
func (s *FileStore) Save(_ context.Context, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode provenance report")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create report dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".provenance-*.json")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write provenance report")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeInternal, err, "write provenance report")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeInternal, err, "write provenance report")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeInternal, err, "write provenance report")
	}
	return nil
}

// Load reads a report previously written by Save.
func (s *FileStore) Load() (*Report, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode %s", s.path)
	}
	return &r, nil
}

func (s *FileStore) Close(context.Context) error { return nil }

// MultiStore saves to every store in order and stops at the first error.
type MultiStore []Store

func (m MultiStore) Save(ctx context.Context, report *Report) error {
	for _, s := range m {
		if err := s.Save(ctx, report); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiStore) Close(ctx context.Context) error {
	var first error
	for _, s := range m {
		if err := s.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
