// Command catalogdemo walks a file-backed catalog through one add, get, update and
// delete cycle, logging the catalog after each step.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"FileCatalog/internal/catalog"
	"FileCatalog/pkg/kit"
)

func main() {
	path := flag.String("file", "productos.json", "catalog file")
	flag.Parse()

	log, err := kit.NewLogger("catalogdemo", "debug")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	store := catalog.NewFileStore(*path, catalog.WithLogger(log))
	log.Info("initial products", zap.Any("products", store.List()))

	added, err := store.Add(catalog.NewProduct{
		Title:       "Camiseta Argentina",
		Description: "Camiseta original de Argentina, campeon del mundo en el año 2022",
		Price:       40000,
		Thumbnail:   "Sin imagen",
		Code:        "123456",
		Stock:       50,
	})
	if err != nil && !errors.Is(err, catalog.ErrPersist) {
		log.Warn("add rejected", zap.Error(err))
	}
	log.Info("products after add", zap.Any("products", store.List()))

	id := added.ID
	if id == 0 {
		id = 1
	}

	if p, err := store.Get(id); err == nil {
		log.Info("product found", zap.Any("product", p))
	}

	price := 50000.0
	if p, err := store.Update(id, catalog.Patch{Price: &price}); err == nil {
		log.Info("product after update", zap.Any("product", p))
	}

	if p, err := store.Delete(id); err == nil {
		log.Info("product removed", zap.Any("product", p))
	}
}
