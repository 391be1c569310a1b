// Copyright 2025 The upstreamkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mgmtapi implements the HTTP management API of upstreamd.
package mgmtapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/upstreamkit/upstreamkit/pkg/log"
	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
	"github.com/upstreamkit/upstreamkit/pkg/upstream"
	api "github.com/upstreamkit/upstreamkit/private/mgmtapi"
	"github.com/upstreamkit/upstreamkit/private/storage/db"
)

// UpstreamStore is the persistent store of the upstreams.
type UpstreamStore interface {
	InsertUpstream(ctx context.Context, u upstream.Upstream) error
	DeleteUpstream(ctx context.Context, id upstream.ID) error
	GetUpstream(ctx context.Context, id upstream.ID) (upstream.Upstream, error)
	ListUpstreams(ctx context.Context, group string) ([]upstream.Upstream, error)
}

// Server implements the upstreamd management API.
type Server struct {
	Upstreams UpstreamStore
	Registry  *upstream.Registry
	Config    http.HandlerFunc
	LogLevel  http.HandlerFunc
}

// GroupState is the state of the pool of one upstream type.
type GroupState struct {
	Type      string                   `json:"type"`
	Config    PoolConfig               `json:"config"`
	Upstreams []upstream.UpstreamState `json:"upstreams"`
}

// PoolConfig is the JSON representation of upstream.PoolConfig.
type PoolConfig struct {
	TTL         string  `json:"ttl"`
	MinFailures int     `json:"min_failures"`
	MinWeight   float64 `json:"min_weight"`
	Decay       float64 `json:"decay"`
}

// HandlerFromMuxWithBaseURL registers the API endpoints on r under baseURL
// and returns r.
func HandlerFromMuxWithBaseURL(s *Server, r chi.Router, baseURL string) http.Handler {
	r.Route(baseURL, func(r chi.Router) {
		r.Get("/spec", s.GetSpec)
		if s.Config != nil {
			r.Get("/config", s.Config)
		}
		if s.LogLevel != nil {
			r.Get("/log/level", s.LogLevel)
			r.Put("/log/level", s.LogLevel)
		}
		r.Get("/upstreams", s.GetUpstreams)
		r.Post("/upstreams", s.PostUpstream)
		r.Get("/upstreams/{id}", s.GetUpstream)
		r.Delete("/upstreams/{id}", s.DeleteUpstream)
		r.Get("/groups", s.GetGroups)
		r.Get("/groups/{type}", s.GetGroup)
		r.Get("/groups/{type}/sample", s.SampleUpstream)
		r.Post("/groups/{type}/upstreams/{id}/success", s.PostSuccess)
		r.Post("/groups/{type}/upstreams/{id}/failure", s.PostFailure)
	})
	return r
}

// Handler returns the API handler with the endpoints under /api/v1.
func Handler(s *Server) http.Handler {
	return HandlerFromMuxWithBaseURL(s, chi.NewRouter(), "/api/v1")
}

// GetUpstreams lists the stored upstreams, optionally filtered by the type
// query parameter.
func (s *Server) GetUpstreams(w http.ResponseWriter, r *http.Request) {
	params, err := bindGetUpstreamsParams(r)
	if err != nil {
		paramError(w, err)
		return
	}
	upstreams, err := s.Upstreams.ListUpstreams(r.Context(), deref(params.Type))
	if err != nil {
		storeError(w, err, "error listing upstreams")
		return
	}
	if upstreams == nil {
		upstreams = []upstream.Upstream{}
	}
	api.JSONResponse(w, http.StatusOK, upstreams)
}

// PostUpstream inserts or replaces the upstream in the request body.
func (s *Server) PostUpstream(w http.ResponseWriter, r *http.Request) {
	var u upstream.Upstream
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		api.ErrorResponse(w, api.Problem{
			Detail: api.StringRef(err.Error()),
			Status: http.StatusBadRequest,
			Title:  "malformed upstream",
			Type:   api.StringRef(api.BadRequest),
		})
		return
	}
	if err := s.Upstreams.InsertUpstream(r.Context(), u); err != nil {
		storeError(w, err, "error storing upstream")
		return
	}
	stored, err := s.Upstreams.GetUpstream(r.Context(), u.ID)
	if err != nil {
		storeError(w, err, "error reading upstream")
		return
	}
	log.FromCtx(r.Context()).Info("Stored upstream", "id", u.ID, "type", u.Type)
	api.JSONResponse(w, http.StatusCreated, stored)
}

// GetUpstream returns the stored upstream with the given ID.
func (s *Server) GetUpstream(w http.ResponseWriter, r *http.Request) {
	var id string
	if err := bindPathParam(r, "id", &id); err != nil {
		paramError(w, err)
		return
	}
	u, err := s.Upstreams.GetUpstream(r.Context(), upstream.ID(id))
	if err != nil {
		storeError(w, err, "error getting upstream")
		return
	}
	api.JSONResponse(w, http.StatusOK, u)
}

// DeleteUpstream deletes the stored upstream with the given ID. Pools drop it
// with their next reload.
func (s *Server) DeleteUpstream(w http.ResponseWriter, r *http.Request) {
	var id string
	if err := bindPathParam(r, "id", &id); err != nil {
		paramError(w, err)
		return
	}
	if err := s.Upstreams.DeleteUpstream(r.Context(), upstream.ID(id)); err != nil {
		storeError(w, err, "error deleting upstream")
		return
	}
	log.FromCtx(r.Context()).Info("Deleted upstream", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// GetGroups returns the state of all pools.
func (s *Server) GetGroups(w http.ResponseWriter, r *http.Request) {
	groups := s.Registry.Groups()
	states := make([]GroupState, 0, len(groups))
	for _, group := range groups {
		if p, ok := s.Registry.Pool(group); ok {
			states = append(states, groupState(group, p))
		}
	}
	api.JSONResponse(w, http.StatusOK, states)
}

// GetGroup returns the state of the pool of the given type.
func (s *Server) GetGroup(w http.ResponseWriter, r *http.Request) {
	var group string
	if err := bindPathParam(r, "type", &group); err != nil {
		paramError(w, err)
		return
	}
	p, ok := s.Registry.Pool(group)
	if !ok {
		api.ErrorResponse(w, api.Problem{
			Detail: api.StringRef("no upstream of this type was sampled yet"),
			Status: http.StatusNotFound,
			Title:  "unknown type",
			Type:   api.StringRef(api.NotFound),
		})
		return
	}
	api.JSONResponse(w, http.StatusOK, groupState(group, p))
}

// SampleUpstream selects an upstream of the given type. The optional hint and
// upstream query parameters restrict the selection to the same or a
// different upstream.
func (s *Server) SampleUpstream(w http.ResponseWriter, r *http.Request) {
	var group string
	if err := bindPathParam(r, "type", &group); err != nil {
		paramError(w, err)
		return
	}
	params, err := bindSampleUpstreamParams(r)
	if err != nil {
		paramError(w, err)
		return
	}
	hint, err := parseHint(params)
	if err != nil {
		api.ErrorResponse(w, api.Problem{
			Detail: api.StringRef(err.Error()),
			Status: http.StatusBadRequest,
			Title:  "malformed hint",
			Type:   api.StringRef(api.BadRequest),
		})
		return
	}
	u, err := s.Registry.Sample(r.Context(), group, hint)
	switch {
	case err == nil:
		api.JSONResponse(w, http.StatusOK, u)
	case errors.Is(err, upstream.ErrNoUpstream):
		api.ErrorResponse(w, api.Problem{
			Detail: api.StringRef(err.Error()),
			Status: http.StatusNotFound,
			Title:  "no upstream available",
			Type:   api.StringRef(api.NotFound),
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		api.ErrorResponse(w, api.Problem{
			Detail: api.StringRef(err.Error()),
			Status: http.StatusServiceUnavailable,
			Title:  "sampling canceled",
			Type:   api.StringRef(api.Unavailable),
		})
	default:
		log.FromCtx(r.Context()).Error("Sampling upstream failed", "type", group, "err", err)
		api.ErrorResponse(w, api.Problem{
			Detail: api.StringRef(err.Error()),
			Status: http.StatusInternalServerError,
			Title:  "error sampling upstream",
			Type:   api.StringRef(api.InternalError),
		})
	}
}

// PostSuccess reports a successful request to an upstream.
func (s *Server) PostSuccess(w http.ResponseWriter, r *http.Request) {
	s.report(w, r, true)
}

// PostFailure reports a failed request to an upstream.
func (s *Server) PostFailure(w http.ResponseWriter, r *http.Request) {
	s.report(w, r, false)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request, success bool) {
	var group, id string
	if err := bindPathParam(r, "type", &group); err != nil {
		paramError(w, err)
		return
	}
	if err := bindPathParam(r, "id", &id); err != nil {
		paramError(w, err)
		return
	}
	p, ok := s.Registry.Pool(group)
	if !ok {
		api.ErrorResponse(w, api.Problem{
			Detail: api.StringRef("no upstream of this type was sampled yet"),
			Status: http.StatusNotFound,
			Title:  "unknown type",
			Type:   api.StringRef(api.NotFound),
		})
		return
	}
	if err := p.Report(upstream.ID(id), success); err != nil {
		api.ErrorResponse(w, api.Problem{
			Detail: api.StringRef(err.Error()),
			Status: http.StatusNotFound,
			Title:  "unknown upstream",
			Type:   api.StringRef(api.NotFound),
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseHint(params SampleUpstreamParams) (*upstream.Hint, error) {
	kind, id := deref(params.Hint), deref(params.Upstream)
	if kind == "" && id == "" {
		return nil, nil
	}
	k, err := upstream.ParseHintKind(kind)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, serrors.New("hint requires the upstream parameter")
	}
	return &upstream.Hint{Kind: k, ID: upstream.ID(id)}, nil
}

func groupState(group string, p *upstream.Pool) GroupState {
	cfg := p.Config()
	return GroupState{
		Type: group,
		Config: PoolConfig{
			TTL:         cfg.TTL.String(),
			MinFailures: cfg.MinFailures,
			MinWeight:   cfg.MinWeight,
			Decay:       cfg.Decay,
		},
		Upstreams: p.States(),
	}
}

func storeError(w http.ResponseWriter, err error, title string) {
	p := api.Problem{
		Detail: api.StringRef(err.Error()),
		Status: http.StatusInternalServerError,
		Title:  title,
		Type:   api.StringRef(api.InternalError),
	}
	switch {
	case errors.Is(err, db.ErrNotFound):
		p.Status, p.Type = http.StatusNotFound, api.StringRef(api.NotFound)
	case errors.Is(err, db.ErrInvalidInputData):
		p.Status, p.Type = http.StatusBadRequest, api.StringRef(api.BadRequest)
	}
	api.ErrorResponse(w, p)
}
