// Package registry provides a concurrency-safe keyed registry.
package registry

import "github.com/alphadose/haxmap"

type Registry[T any] interface {
	Get(id string) (T, bool)
	Add(id string, value T)
	Del(id string)
	Len() int
	// ForEach visits every entry; return false to stop early.
	ForEach(fn func(id string, value T) bool)
}

type registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

func (r *registry[T]) Get(id string) (T, bool) {
	return r.values.Get(id)
}

func (r *registry[T]) Add(id string, value T) {
	r.values.Set(id, value)
}

func (r *registry[T]) Del(id string) {
	r.values.Del(id)
}

func (r *registry[T]) Len() int {
	return int(r.values.Len())
}

func (r *registry[T]) ForEach(fn func(id string, value T) bool) {
	r.values.ForEach(fn)
}
