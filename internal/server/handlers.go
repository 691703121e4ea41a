package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/csvcharts/internal/analysis"
	"github.com/KaramelBytes/csvcharts/internal/catalog"
	"github.com/KaramelBytes/csvcharts/internal/dashboard"
)

type datasetView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Source      string `json:"source"`
	Description string `json:"description,omitempty"`
}

type aggregateView struct {
	Dataset string          `json:"dataset"`
	Title   string          `json:"title"`
	X       string          `json:"x"`
	Y       string          `json:"y,omitempty"`
	Result  analysis.Result `json:"result"`
	Warning string          `json:"warning,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries := s.cat.List()
	out := make([]datasetView, 0, len(entries))
	for _, e := range entries {
		out = append(out, datasetView{ID: e.ID, Name: e.Name, Source: e.Source, Description: e.Description})
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": out})
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	sum := analysis.Summarize(ctrl.Dataset(), s.opt.Aggregator.Inferencer)
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(ctrl.Summary()))
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	sel, err := selectionFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds := ctrl.Dataset()
	if sel.X == "" {
		sel.X = ctrl.Selection().X
	}
	res, err := s.opt.Aggregator.Aggregate(ds, analysis.Request{X: sel.X, Y: sel.Y, Mode: sel.Mode, Bins: sel.Bins})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	view := aggregateView{
		Dataset: ds.Name,
		Title:   dashboard.Title(res.Mode, sel.X, sel.Y, ds.Name),
		X:       sel.X,
		Y:       sel.Y,
		Result:  res,
	}
	if res.Empty() {
		view.Warning = (&analysis.EmptyResultError{Mode: res.Mode, X: sel.X, Y: sel.Y}).Error()
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	sel, err := selectionFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var buf bytes.Buffer
	out, err := ctrl.RenderTo(sel, &buf)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if out.Warning != nil {
		w.Header().Set("X-Chart-Warning", out.Warning.Error())
	}
	w.Header().Set("Content-Type", ctrl.Surface().Backend().ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*dashboard.Controller, bool) {
	ctrl, err := s.Controller(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return nil, false
	}
	return ctrl, true
}

func selectionFrom(r *http.Request) (dashboard.Selection, error) {
	q := r.URL.Query()
	mode, err := analysis.ParseMode(q.Get("kind"))
	if err != nil {
		return dashboard.Selection{}, err
	}
	sel := dashboard.Selection{X: q.Get("x"), Y: q.Get("y"), Mode: mode}
	if b := q.Get("bins"); b != "" {
		n, err := strconv.Atoi(b)
		if err != nil || n < 1 {
			return dashboard.Selection{}, errors.New("bins must be a positive integer")
		}
		if n > analysis.MaxBins {
			return dashboard.Selection{}, fmt.Errorf("bins must be at most %d", analysis.MaxBins)
		}
		sel.Bins = n
	}
	return sel, nil
}

func statusFor(err error) int {
	var colErr *analysis.ColumnError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &colErr), errors.Is(err, analysis.ErrYColumnRequired):
		return http.StatusBadRequest
	case dashboard.IsLoadError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v before touching the response so an unencodable value
// becomes a 500 rather than a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		json.NewEncoder(&buf).Encode(map[string]string{"error": "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
