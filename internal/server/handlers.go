package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/errors"
	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/layout/quality"
	"github.com/storyloom/storyflow/pkg/pipeline"
	"github.com/storyloom/storyflow/pkg/render"
)

// layoutRequest is the POST /v1/layout body.
type layoutRequest struct {
	Entities []entity.Entity   `json:"entities"`
	Options  *pipeline.Options `json:"options,omitempty"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body"))
		return
	}
	entities, dropped := entity.FromSlice(req.Entities)
	if dropped > 0 {
		s.logger.Warn("dropped invalid entities", "count", dropped)
	}
	s.runLayout(w, r, entities, req.Options)
}

func (s *Server) handleSnapshotLayout(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "no snapshot store configured"))
		return
	}
	name := chi.URLParam(r, "name")
	entities, err := s.store.Load(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	var opts *pipeline.Options
	if r.ContentLength > 0 {
		opts = &pipeline.Options{}
		if err := json.NewDecoder(r.Body).Decode(opts); err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body"))
			return
		}
	}
	s.runLayout(w, r, entities, opts)
}

func (s *Server) runLayout(w http.ResponseWriter, r *http.Request, entities *entity.Collection, opts *pipeline.Options) {
	options := pipeline.DefaultOptions()
	if opts != nil {
		options = *opts
	}
	if err := options.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), entities, options)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// qualityRequest is the POST /v1/quality body. Nodes carry positions from
// an earlier layout call.
type qualityRequest struct {
	Nodes     []graph.Node `json:"nodes"`
	Edges     []graph.Edge `json:"edges"`
	Algorithm string       `json:"algorithm,omitempty"`
}

type qualityResponse struct {
	Quality     quality.Advanced     `json:"quality"`
	Suggestions []quality.Suggestion `json:"suggestions,omitempty"`
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	var req qualityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body"))
		return
	}
	visible := graph.VisibleEdges(req.Edges)
	adv := quality.EvaluateAdvanced(req.Nodes, visible)
	writeJSON(w, http.StatusOK, qualityResponse{
		Quality:     adv,
		Suggestions: quality.Suggest(adv, req.Algorithm, len(visible)),
	})
}

// renderRequest is the POST /v1/render body. The format query parameter
// selects dot, svg, or png output (default dot).
type renderRequest struct {
	Nodes    []graph.Node `json:"nodes"`
	Edges    []graph.Edge `json:"edges"`
	Detailed bool         `json:"detailed,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body"))
		return
	}
	g := graph.Graph{Nodes: req.Nodes, Edges: req.Edges}
	dot := render.ToDOT(g, render.Options{Detailed: req.Detailed})

	switch format := r.URL.Query().Get("format"); format {
	case "", "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(dot))
	case "svg":
		data, err := render.RenderSVG(r.Context(), dot)
		if err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render svg"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(data)
	case "png":
		data, err := render.RenderPNG(r.Context(), dot)
		if err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render png"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidFormat, "unknown render format %q", format))
	}
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "no snapshot store configured"))
		return
	}
	names, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"snapshots": names})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "no snapshot store configured"))
		return
	}
	entities, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]entity.Entity{"entities": entities.All()})
}

func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "no snapshot store configured"))
		return
	}
	var body struct {
		Entities []entity.Entity `json:"entities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body"))
		return
	}
	entities, _ := entity.FromSlice(body.Entities)
	name := chi.URLParam(r, "name")
	if err := s.store.Save(r.Context(), name, entities); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "entities": entities.Len()})
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "no snapshot store configured"))
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
