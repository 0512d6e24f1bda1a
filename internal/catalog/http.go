package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"FileCatalog/pkg/kit"
)

const maxBodyBytes = 1 << 20

// Server exposes a Store over HTTP. mu serializes every store call because the
// store itself does no locking.
type Server struct {
	mu    sync.Mutex
	Store Store
	Log   *zap.Logger
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	products := append([]Product(nil), s.Store.List()...)
	s.mu.Unlock()

	if products == nil {
		products = []Product{}
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	p, err := s.Store.Get(id)
	s.mu.Unlock()

	if err != nil {
		s.writeStoreError(w, r, err, id)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var np NewProduct
	if err := decodeJSON(w, r, &np); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	s.mu.Lock()
	p, err := s.Store.Add(np)
	s.mu.Unlock()

	if err != nil && !errors.Is(err, ErrPersist) {
		s.writeStoreError(w, r, err, 0)
		return
	}
	if err != nil {
		s.logger().Warn("product kept in memory only", zap.Int("id", p.ID), zap.Error(err))
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var patch Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if patch.Empty() {
		kit.WriteError(w, r, http.StatusBadRequest, "no fields to update", nil)
		return
	}

	s.mu.Lock()
	p, err := s.Store.Update(id, patch)
	s.mu.Unlock()

	if err != nil && !errors.Is(err, ErrPersist) {
		s.writeStoreError(w, r, err, id)
		return
	}
	if err != nil {
		s.logger().Warn("update kept in memory only", zap.Int("id", p.ID), zap.Error(err))
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	p, err := s.Store.Delete(id)
	s.mu.Unlock()

	if err != nil && !errors.Is(err, ErrPersist) {
		s.writeStoreError(w, r, err, id)
		return
	}
	if err != nil {
		s.logger().Warn("delete kept in memory only", zap.Int("id", p.ID), zap.Error(err))
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, id int) {
	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
	case errors.Is(err, ErrFieldsRequired), errors.Is(err, ErrInvalidPrice):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrCodeInUse):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	default:
		s.logger().Error("store operation failed", zap.Error(err), zap.Int("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}
