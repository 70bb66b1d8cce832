package store

// BaseCatalogStore is the base implementation of a CatalogStore. Client is the
// underlying datastore client, such as a database connection.
type BaseCatalogStore[T any] struct {
	Client T
}

func (s *BaseCatalogStore[T]) GetClient() T {
	return s.Client
}
