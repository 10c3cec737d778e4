// Package session holds the state of one exploration: the loaded table, its
// profile, the active filter and the last chart request.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/highwayhash"

	"github.com/KaramelBytes/tabex/internal/analysis"
	"github.com/KaramelBytes/tabex/internal/chart"
	"github.com/KaramelBytes/tabex/internal/dataset"
	"github.com/KaramelBytes/tabex/internal/filter"
	"github.com/KaramelBytes/tabex/internal/loader"
)

var fingerprintKey = []byte("tabex-session-fingerprint-key-01")

// Fingerprint returns a 64-bit HighwayHash of data as 16 hex digits.
func Fingerprint(data []byte) (string, error) {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return "", err
	}
	if _, err := h.Write(data); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Session is owned by one caller at a time and is not safe for concurrent use.
// Store serializes access for the HTTP host.
type Session struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	source        *dataset.Table
	sourceProfile *analysis.Profile
	view          *dataset.Table
	viewProfile   *analysis.Profile
	predicate     *filter.Predicate
	lastChart     *chart.Request
}

// New loads data into a fresh session. A load failure yields no session.
func New(name string, data []byte, opt loader.Options) (*Session, error) {
	t, err := loader.LoadWithOptions(data, name, opt)
	if err != nil {
		return nil, err
	}
	fp, err := Fingerprint(data)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	return FromTable(name, fp, t), nil
}

// FromTable starts a session on an already loaded table.
func FromTable(name, fingerprint string, t *dataset.Table) *Session {
	now := time.Now()
	return &Session{
		ID:          uuid.NewString(),
		Name:        name,
		Fingerprint: fingerprint,
		CreatedAt:   now,
		UpdatedAt:   now,
		source:      t,
		view:        t,
	}
}

// Source returns the table as loaded.
func (s *Session) Source() *dataset.Table { return s.source }

// Table returns the current view: the filtered table when a filter is
// active, the source table otherwise.
func (s *Session) Table() *dataset.Table { return s.view }

// SourceProfile returns the profile of the source table, computed once.
func (s *Session) SourceProfile() *analysis.Profile {
	if s.sourceProfile == nil {
		s.sourceProfile = analysis.Describe(s.source)
	}
	return s.sourceProfile
}

// Profile returns the profile of the current view.
func (s *Session) Profile() *analysis.Profile {
	if s.predicate == nil {
		return s.SourceProfile()
	}
	if s.viewProfile == nil {
		s.viewProfile = analysis.Describe(s.view)
	}
	return s.viewProfile
}

// Head returns the first n rows of the current view.
func (s *Session) Head(n int) *dataset.Table { return s.view.Head(n) }

// ApplyFilter filters the source table and makes the result the current
// view. Filters replace each other rather than accumulate. On error the
// session is unchanged.
func (s *Session) ApplyFilter(p filter.Predicate) (*dataset.Table, error) {
	out, err := filter.Apply(s.source, p)
	if err != nil {
		return nil, err
	}
	s.view = out
	s.viewProfile = nil
	s.predicate = &p
	s.touch()
	return out, nil
}

// ClearFilter restores the source table as the current view.
func (s *Session) ClearFilter() {
	s.view = s.source
	s.viewProfile = nil
	s.predicate = nil
	s.touch()
}

// Filter returns the active predicate, if any.
func (s *Session) Filter() (filter.Predicate, bool) {
	if s.predicate == nil {
		return filter.Predicate{}, false
	}
	return *s.predicate, true
}

// Chart builds a chart from the current view and remembers the request when
// it succeeds.
func (s *Session) Chart(req chart.Request) (*chart.Descriptor, error) {
	d, err := chart.Build(s.view, req)
	if err != nil {
		return nil, err
	}
	s.lastChart = &req
	s.touch()
	return d, nil
}

// LastChart returns the last successful chart request, if any.
func (s *Session) LastChart() (chart.Request, bool) {
	if s.lastChart == nil {
		return chart.Request{}, false
	}
	return *s.lastChart, true
}

func (s *Session) touch() { s.UpdatedAt = time.Now() }
