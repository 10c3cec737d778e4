package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/tabex/internal/analysis"
	"github.com/KaramelBytes/tabex/internal/chart"
	"github.com/KaramelBytes/tabex/internal/dataset"
	"github.com/KaramelBytes/tabex/internal/filter"
	"github.com/KaramelBytes/tabex/internal/loader"
	"github.com/KaramelBytes/tabex/internal/logging"
	"github.com/KaramelBytes/tabex/internal/session"
)

// multipart parts above this size spill to temp files.
const formMemory = 8 << 20

// SessionResponse describes a newly created session.
type SessionResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Fingerprint string           `json:"fingerprint"`
	Rows        int              `json:"rows"`
	Cols        int              `json:"cols"`
	Columns     []analysis.Dtype `json:"columns"`
}

// TableResponse is a slice of rows. Missing cells are null.
type TableResponse struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Total   int      `json:"total"`
}

// ShapeResponse reports the size of the current view.
type ShapeResponse struct {
	Rows   int               `json:"rows"`
	Cols   int               `json:"cols"`
	Filter *filter.Predicate `json:"filter,omitempty"`
}

func newTableResponse(t *dataset.Table, total int) TableResponse {
	resp := TableResponse{Columns: t.ColumnNames(), Rows: make([][]any, t.NumRows()), Total: total}
	for i := range resp.Rows {
		row := t.Row(i)
		out := make([]any, len(row))
		for j, v := range row {
			if !v.Missing {
				out[j] = v.Text
			}
		}
		resp.Rows[i] = out
	}
	return resp
}

func shapeOf(sess *session.Session) ShapeResponse {
	r, c := sess.Table().Shape()
	resp := ShapeResponse{Rows: r, Cols: c}
	if p, ok := sess.Filter(); ok {
		resp.Filter = &p
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || r.ContentLength > limit {
			respondError(w, r, &http.MaxBytesError{Limit: limit})
			return
		}
		respondError(w, r, badRequest("invalid multipart form", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, badRequest("no file provided", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, badRequest("read upload", err))
		return
	}

	sess, err := session.New(header.Filename, data, loader.Options{MaxRows: s.cfg.MaxRows})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n := s.store.Add(sess); n > 0 {
		logging.FromContext(r.Context()).Info("evicted sessions", "count", n)
	}
	rows, cols := sess.Table().Shape()
	logging.WithFields(r.Context(), "session", sess.ID).Info("session created",
		"name", sess.Name, "rows", rows, "cols", cols, "fingerprint", sess.Fingerprint)
	writeJSON(w, http.StatusCreated, SessionResponse{
		ID:          sess.ID,
		Name:        sess.Name,
		Fingerprint: sess.Fingerprint,
		Rows:        rows,
		Cols:        cols,
		Columns:     sess.SourceProfile().Dtypes(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("n"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, badRequest("invalid n", err))
			return
		}
		n = i
		if n < 1 {
			n = 1
		}
	}
	n = s.cfg.ClampPreview(n)
	var resp TableResponse
	err := s.store.With(chi.URLParam(r, "id"), func(sess *session.Session) error {
		resp = newTableResponse(sess.Head(n), sess.Table().NumRows())
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope != "" && scope != "source" && scope != "view" {
		respondError(w, r, badRequest(fmt.Sprintf("unknown scope %q (want source or view)", scope), nil))
		return
	}
	var p *analysis.Profile
	err := s.store.With(chi.URLParam(r, "id"), func(sess *session.Session) error {
		if scope == "source" {
			p = sess.SourceProfile()
		} else {
			p = sess.Profile()
		}
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDistinct(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")
	var values []string
	err := s.store.With(chi.URLParam(r, "id"), func(sess *session.Session) error {
		var err error
		values, err = analysis.DistinctValues(sess.Source(), column)
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"column": column, "values": values})
}

func (s *Server) handleApplyFilter(w http.ResponseWriter, r *http.Request) {
	var p filter.Predicate
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, r, err)
		return
	}
	var resp ShapeResponse
	err := s.store.With(chi.URLParam(r, "id"), func(sess *session.Session) error {
		if _, err := sess.ApplyFilter(p); err != nil {
			return err
		}
		resp = shapeOf(sess)
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearFilter(w http.ResponseWriter, r *http.Request) {
	var resp ShapeResponse
	err := s.store.With(chi.URLParam(r, "id"), func(sess *session.Session) error {
		sess.ClearFilter()
		resp = shapeOf(sess)
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	var req chart.Request
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Style == (chart.Style{}) {
		req.Style = s.defaultStyle()
	}
	if req.Labels == "" {
		req.Labels = chart.LabelMode(s.cfg.LabelMode)
	}
	var d *chart.Descriptor
	err := s.store.With(chi.URLParam(r, "id"), func(sess *session.Session) error {
		var err error
		d, err = sess.Chart(req)
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var t *dataset.Table
	var name string
	err := s.store.With(chi.URLParam(r, "id"), func(sess *session.Session) error {
		t, name = sess.Table(), sess.Name
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(name)))
	if err := t.WriteCSV(w); err != nil {
		logging.FromContext(r.Context()).Error("export failed", "error", err)
	}
}

func (s *Server) defaultStyle() chart.Style {
	return chart.Style{
		LabelRotation: s.cfg.LabelRotation,
		Width:         s.cfg.FigureWidth,
		Height:        s.cfg.FigureHeight,
		Palette:       s.cfg.Palette,
	}
}

// decodeJSON decodes a JSON body. Unsupported enum values keep their chart
// error so they map to unsupported_plot_kind.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, chart.ErrUnsupportedPlotKind) {
			return err
		}
		return badRequest("invalid JSON body", err)
	}
	return nil
}

func exportName(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || name == "." {
		name = "data"
	}
	return name + ".filtered.csv"
}
