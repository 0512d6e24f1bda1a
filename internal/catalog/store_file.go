package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const fileMode = 0o644

// FileStore keeps the catalog in memory in insertion order and rewrites the whole
// backing file after every mutation. It is not safe for concurrent use.
type FileStore struct {
	path     string
	products []Product
	nextID   int

	log     *zap.Logger
	metrics *storeMetrics
}

type Option func(*FileStore)

func WithLogger(log *zap.Logger) Option {
	return func(s *FileStore) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRegisterer registers the store collectors on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *FileStore) {
		if reg != nil {
			s.metrics = newStoreMetrics(reg)
		}
	}
}

// NewFileStore loads path and returns the store. A missing, unreadable or malformed
// file yields an empty catalog.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path:     path,
		products: []Product{},
		nextID:   1,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("path", path))

	s.load()
	return s
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() {
	s.products = []Product{}
	s.nextID = 1

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.log.Warn("load products failed, starting empty", zap.Error(err))
		return
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		s.log.Warn("products file is not a product array, starting empty", zap.Error(err))
		return
	}
	if products != nil {
		s.products = products
	}

	for _, p := range s.products {
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}

	s.metrics.loaded(len(s.products))
	s.log.Info("products loaded", zap.Int("count", len(s.products)), zap.Int("next_id", s.nextID))
}

func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.products, "", "  ")
	if err == nil {
		err = os.WriteFile(s.path, data, fileMode)
	}
	if err != nil {
		s.metrics.saveFailed()
		s.log.Error("save products failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// Add validates np, assigns the next id and appends the product. A save failure
// leaves the product in memory and is reported as ErrPersist alongside it.
func (s *FileStore) Add(np NewProduct) (Product, error) {
	if !np.complete() {
		s.log.Warn(ErrFieldsRequired.Error())
		return Product{}, ErrFieldsRequired
	}
	if slices.ContainsFunc(s.products, func(p Product) bool { return p.Code == np.Code }) {
		s.log.Warn(ErrCodeInUse.Error(), zap.String("code", np.Code))
		return Product{}, ErrCodeInUse
	}

	p := np.product(s.nextID)
	s.nextID++
	s.products = append(s.products, p)
	s.metrics.mutated("add", len(s.products))

	err := s.save()
	s.log.Info("product added", zap.Int("id", p.ID), zap.String("code", p.Code))
	return p, err
}

// List returns the backing slice itself; callers must not modify it.
func (s *FileStore) List() []Product {
	return s.products
}

// Get returns the product with the given id, or ErrNotFound.
func (s *FileStore) Get(id int) (Product, error) {
	i := s.indexOf(id)
	if i < 0 {
		s.log.Warn(ErrNotFound.Error(), zap.Int("id", id))
		return Product{}, ErrNotFound
	}
	return s.products[i], nil
}

// Update shallow-merges p onto the product with the given id. Neither uniqueness nor
// required fields are re-checked, so a patch may rewrite id and code. A non-finite
// price is rejected with ErrInvalidPrice.
func (s *FileStore) Update(id int, p Patch) (Product, error) {
	i := s.indexOf(id)
	if i < 0 {
		s.log.Warn(ErrNotFound.Error(), zap.Int("id", id))
		return Product{}, ErrNotFound
	}
	if !p.valid() {
		s.log.Warn(ErrInvalidPrice.Error(), zap.Int("id", id))
		return Product{}, ErrInvalidPrice
	}

	s.products[i] = p.apply(s.products[i])
	s.nextID = max(s.nextID, s.products[i].ID+1)
	s.metrics.mutated("update", len(s.products))

	err := s.save()
	s.log.Info("product updated", zap.Int("id", s.products[i].ID))
	return s.products[i], err
}

// Delete removes the product with the given id and returns it, or ErrNotFound.
func (s *FileStore) Delete(id int) (Product, error) {
	i := s.indexOf(id)
	if i < 0 {
		s.log.Warn(ErrNotFound.Error(), zap.Int("id", id))
		return Product{}, ErrNotFound
	}

	removed := s.products[i]
	s.products = slices.Delete(s.products, i, i+1)
	s.metrics.mutated("delete", len(s.products))

	err := s.save()
	s.log.Info("product deleted", zap.Int("id", removed.ID))
	return removed, err
}

// Ping reports whether the directory holding the catalog file is reachable.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func (s *FileStore) indexOf(id int) int {
	return slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
}
