package storage

// overlay buffers writes over a committed map until commit.
type overlay[K comparable, V any] struct {
	base  map[K]V
	dirty map[K]V
	gone  map[K]struct{}
}

func newOverlay[K comparable, V any](base map[K]V) overlay[K, V] {
	return overlay[K, V]{base: base, dirty: map[K]V{}, gone: map[K]struct{}{}}
}

func (o *overlay[K, V]) get(k K) (V, bool) {
	if v, ok := o.dirty[k]; ok {
		return v, true
	}
	if _, ok := o.gone[k]; ok {
		var zero V
		return zero, false
	}
	v, ok := o.base[k]
	return v, ok
}

func (o *overlay[K, V]) set(k K, v V) {
	delete(o.gone, k)
	o.dirty[k] = v
}

func (o *overlay[K, V]) del(k K) {
	delete(o.dirty, k)
	o.gone[k] = struct{}{}
}

func (o *overlay[K, V]) commit() {
	for k := range o.gone {
		delete(o.base, k)
	}
	for k, v := range o.dirty {
		o.base[k] = v
	}
}
