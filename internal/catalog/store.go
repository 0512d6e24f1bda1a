package catalog

import "context"

// Store is the operation surface the HTTP server drives. Implementations are not
// required to be safe for concurrent use.
type Store interface {
	Add(np NewProduct) (Product, error)
	List() []Product
	Get(id int) (Product, error)
	Update(id int, p Patch) (Product, error)
	Delete(id int) (Product, error)
	Ping(ctx context.Context) error
}

var _ Store = (*FileStore)(nil)
