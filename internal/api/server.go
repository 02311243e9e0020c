// Package api exposes the broadband resolution pipeline and the property
// store over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mikedoall/home-data-hub/internal/broadband"
	"github.com/mikedoall/home-data-hub/internal/model"
	"github.com/mikedoall/home-data-hub/internal/store"
)

// Resolver is the resolution pipeline surface the API depends on.
type Resolver interface {
	ResolveAddress(ctx context.Context, address string) (*model.BroadbandResult, error)
	ResolveCoordinates(ctx context.Context, lat, lon float64) (*model.BroadbandResult, error)
}

// Server holds the HTTP handler dependencies.
type Server struct {
	store    store.Store
	resolver Resolver
}

// NewServer creates a Server.
func NewServer(st store.Store, r Resolver) *Server {
	return &Server{store: st, resolver: r}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/broadband", s.handleBroadband)
		r.Get("/properties", s.handleListProperties)
		r.Post("/properties", s.handleCreateProperty)
		r.Get("/properties/{id}", s.handleGetProperty)
		r.Get("/properties/{id}/broadband", s.handlePropertyBroadband)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBroadband resolves availability for ?address= or ?lat=&lng=.
func (s *Server) handleBroadband(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var result *model.BroadbandResult
	var err error
	switch {
	case q.Get("address") != "":
		result, err = s.resolver.ResolveAddress(ctx, q.Get("address"))
	case q.Get("lat") != "" && q.Get("lng") != "":
		var lat, lon float64
		lat, err = strconv.ParseFloat(q.Get("lat"), 64)
		if err == nil {
			lon, err = strconv.ParseFloat(q.Get("lng"), 64)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "lat and lng must be numeric")
			return
		}
		result, err = s.resolver.ResolveCoordinates(ctx, lat, lon)
	default:
		writeError(w, http.StatusBadRequest, "address or lat/lng query parameters are required")
		return
	}

	if err != nil {
		if eris.Is(err, broadband.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid address or coordinates")
			return
		}
		zap.L().Error("api: broadband resolution failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "broadband resolution failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.PropertyFilter{
		City:  q.Get("city"),
		State: q.Get("state"),
		Zip:   q.Get("zip"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	properties, err := s.store.ListProperties(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list properties failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list properties failed")
		return
	}
	if properties == nil {
		properties = []model.Property{}
	}
	writeJSON(w, http.StatusOK, properties)
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	var p model.Property
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.Address == "" || p.City == "" || p.State == "" || p.Zip == "" {
		writeError(w, http.StatusBadRequest, "address, city, state and zip are required")
		return
	}

	created, err := s.store.CreateProperty(r.Context(), p)
	if err != nil {
		zap.L().Error("api: create property failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "create property failed")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if eris.Is(err, store.ErrPropertyNotFound) {
			writeError(w, http.StatusNotFound, "property not found")
			return
		}
		zap.L().Error("api: get property failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get property failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePropertyBroadband resolves availability for a stored property,
// using its coordinates directly when present.
func (s *Server) handlePropertyBroadband(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := s.store.GetProperty(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if eris.Is(err, store.ErrPropertyNotFound) {
			writeError(w, http.StatusNotFound, "property not found")
			return
		}
		zap.L().Error("api: get property failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get property failed")
		return
	}

	var result *model.BroadbandResult
	if p.HasCoordinates() {
		result, err = s.resolver.ResolveCoordinates(ctx, p.Latitude, p.Longitude)
	} else {
		full := fmt.Sprintf("%s, %s, %s %s", p.Address, p.City, p.State, p.Zip)
		result, err = s.resolver.ResolveAddress(ctx, full)
	}
	if err != nil {
		zap.L().Error("api: property broadband resolution failed",
			zap.String("property_id", p.ID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "broadband resolution failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
