package model

// Item wraps a single resource in a response envelope.
type Item[T any] struct {
	Data T `json:"data"`
}

// Meta carries offset pagination metadata for a Collection.
type Meta struct {
	PageIndex int    `json:"page_index"`
	NextURL   string `json:"next_url"`
}

// Collection wraps one page of resources.
// An empty Data slice marks the end of the collection; NextURL is always set.
type Collection[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// NewCollection builds a Collection, normalizing a nil page to an empty one
// so it serializes as [] rather than null.
func NewCollection[T any](data []T, meta Meta) Collection[T] {
	if data == nil {
		data = []T{}
	}
	return Collection[T]{Data: data, Meta: meta}
}
