/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Gridview Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package server exposes table engines over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/threadworks/gridview/core/aggregates"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/filtering"
	"github.com/threadworks/gridview/core/records"
	"github.com/threadworks/gridview/core/tables"
	"github.com/threadworks/gridview/core/views"
)

// tableEntry pairs an engine with its rows. The engine is not safe for
// concurrent use, so every request on a table holds mu.
type tableEntry struct {
	mu      sync.Mutex
	view    *tables.TableView
	records *records.Collection
}

// Server represents the API server with all its tables
type Server struct {
	router    *mux.Router
	tables    map[string]*tableEntry
	formatter *aggregates.Formatter
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithFormatter sets the formatter of aggregate display strings.
func WithFormatter(f *aggregates.Formatter) Option {
	return func(s *Server) {
		s.formatter = f
	}
}

// NewServer creates a server without tables.
func NewServer(opts ...Option) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		tables:    make(map[string]*tableEntry),
		formatter: aggregates.NewFormatter("$"),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// AddTable serves tv over rs. Table names must be unique.
func (s *Server) AddTable(tv *tables.TableView, rs *records.Collection) error {
	if _, ok := s.tables[tv.Name()]; ok {
		return fmt.Errorf("table %q is already registered", tv.Name())
	}
	s.tables[tv.Name()] = &tableEntry{view: tv, records: rs}
	return nil
}

// Handler returns the HTTP handler for the API server
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tables", s.listTables).Methods(http.MethodGet)

	t := api.PathPrefix("/tables/{table}").Subrouter()
	t.HandleFunc("/rows", s.withTable(s.getRows)).Methods(http.MethodGet)
	t.HandleFunc("/config", s.withTable(s.getConfig)).Methods(http.MethodGet)
	t.HandleFunc("/config", s.withTable(s.putConfig)).Methods(http.MethodPut)
	t.HandleFunc("/update", s.withTable(s.updateView)).Methods(http.MethodPost)
	t.HandleFunc("/aggregations/{field}", s.withTable(s.putAggregation)).Methods(http.MethodPut)
	t.HandleFunc("/aggregations/{field}", s.withTable(s.deleteAggregation)).Methods(http.MethodDelete)
	t.HandleFunc("/views", s.withTable(s.listViews)).Methods(http.MethodGet)
	t.HandleFunc("/views/{name}", s.withTable(s.saveView)).Methods(http.MethodPut)
	t.HandleFunc("/views/{name}", s.withTable(s.deleteView)).Methods(http.MethodDelete)
	t.HandleFunc("/views/{name}/load", s.withTable(s.loadView)).Methods(http.MethodPost)
	t.HandleFunc("/views/{name}/rename", s.withTable(s.renameView)).Methods(http.MethodPost)
}

type tableHandler func(w http.ResponseWriter, r *http.Request, e *tableEntry)

// withTable resolves {table} and serializes access to it.
func (s *Server) withTable(h tableHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["table"]
		e, ok := s.tables[name]
		if !ok {
			s.writeError(w, http.StatusNotFound, fmt.Errorf("table %q not found", name))
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		h(w, r, e)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)))
	})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var unknown *fields.UnknownFieldError
	var opErr *filtering.OperatorError
	var readOnly *records.ReadOnlyFieldError
	switch {
	case views.IsLocked(err):
		return http.StatusForbidden
	case views.IsNotFound(err):
		return http.StatusNotFound
	case views.IsReservedName(err), views.IsDuplicateName(err):
		return http.StatusConflict
	case errors.Is(err, views.ErrEmptyName),
		errors.As(err, &unknown),
		errors.As(err, &opErr),
		errors.As(err, &readOnly):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v before writing the status, so an encoding failure
// still produces a well-formed 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Warn("failed to write response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("error", err.Error()))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// fail writes err with the status statusFor derives from it.
func (s *Server) fail(w http.ResponseWriter, err error) {
	s.writeError(w, statusFor(err), err)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

type tableSummary struct {
	Name       string `json:"name"`
	Rows       int    `json:"rows"`
	Fields     int    `json:"fields"`
	ActiveView string `json:"active_view"`
	Dirty      bool   `json:"dirty"`
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]tableSummary, 0, len(names))
	for _, name := range names {
		e := s.tables[name]
		e.mu.Lock()
		out = append(out, tableSummary{
			Name:       name,
			Rows:       e.records.Len(),
			Fields:     e.view.Registry().Len(),
			ActiveView: e.view.ActiveView().Name,
			Dirty:      e.view.IsDirty(),
		})
		e.mu.Unlock()
	}
	s.writeJSON(w, http.StatusOK, out)
}

type viewSummary struct {
	Name   string       `json:"name"`
	Locked bool         `json:"locked"`
	Active bool         `json:"active"`
	Config views.Config `json:"config"`
}

type viewsResponse struct {
	Views []viewSummary `json:"views"`
	Dirty bool          `json:"dirty"`
}

func (s *Server) viewsOf(e *tableEntry) viewsResponse {
	active := e.view.ActiveView().Name
	list := e.view.Views()
	out := viewsResponse{Views: make([]viewSummary, len(list)), Dirty: e.view.IsDirty()}
	for i, v := range list {
		out.Views[i] = viewSummary{Name: v.Name, Locked: v.Locked, Active: v.Name == active, Config: v.Config}
	}
	return out
}

func (s *Server) listViews(w http.ResponseWriter, r *http.Request, e *tableEntry) {
	s.writeJSON(w, http.StatusOK, s.viewsOf(e))
}

func (s *Server) saveView(w http.ResponseWriter, r *http.Request, e *tableEntry) {
	if err := e.view.SaveView(mux.Vars(r)["name"]); err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.viewsOf(e))
}

func (s *Server) loadView(w http.ResponseWriter, r *http.Request, e *tableEntry) {
	if err := e.view.LoadView(mux.Vars(r)["name"]); err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.viewsOf(e))
}

func (s *Server) renameView(w http.ResponseWriter, r *http.Request, e *tableEntry) {
	var request struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, &request) {
		return
	}
	if err := e.view.RenameView(mux.Vars(r)["name"], request.Name); err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.viewsOf(e))
}

func (s *Server) deleteView(w http.ResponseWriter, r *http.Request, e *tableEntry) {
	if err := e.view.DeleteView(mux.Vars(r)["name"]); err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.viewsOf(e))
}

func (s *Server) updateView(w http.ResponseWriter, r *http.Request, e *tableEntry) {
	if err := e.view.UpdateActiveView(); err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.viewsOf(e))
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request, e *tableEntry) {
	s.writeJSON(w, http.StatusOK, e.view.Live())
}

func (s *Server) putConfig(w http.ResponseWriter, r *http.Request, e *tableEntry) {
	var c views.Config
	if !s.decode(w, r, &c) {
		return
	}
	if err := e.view.SetConfig(c); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e.view.Live())
}

func (s *Server) putAggregation(w http.ResponseWriter, r *http.Request, e *tableEntry) {
	var request struct {
		Function string `json:"function"`
	}
	if !s.decode(w, r, &request) {
		return
	}
	fn, err := aggregates.ParseFunction(request.Function)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := e.view.SetAggregation(fields.Key(mux.Vars(r)["field"]), fn); err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e.view.Aggregations())
}

func (s *Server) deleteAggregation(w http.ResponseWriter, r *http.Request, e *tableEntry) {
	if err := e.view.SetAggregation(fields.Key(mux.Vars(r)["field"]), ""); err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e.view.Aggregations())
}
