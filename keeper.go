package dockertest

// keeper maps user-visible handle strings to positions in a phase's
// container vector. It is built once in Bootstrap and carried unchanged
// (save for its backing slice) through every later phase.
//
// Generic so the same index/collision machinery serves every phase's
// element type (Composition in Bootstrap/Fuel, Transitional in
// Igniting/Orbiting) without duplicating the build/resolve logic.
type keeper[T any] struct {
	kept             []T
	lookupHandlers   map[string]int
	lookupCollisions map[string]struct{}
}

// newKeeper builds a keeper over items, indexing each by the handle
// reported by handleOf. The first occurrence of a handle records its
// index; every subsequent occurrence of the same handle is recorded as a
// collision but the original index is retained.
func newKeeper[T any](items []T, handleOf func(T) string) *keeper[T] {
	k := &keeper[T]{
		kept:             items,
		lookupHandlers:   make(map[string]int, len(items)),
		lookupCollisions: make(map[string]struct{}),
	}
	for i, item := range items {
		h := handleOf(item)
		if _, exists := k.lookupHandlers[h]; exists {
			k.lookupCollisions[h] = struct{}{}
			continue
		}
		k.lookupHandlers[h] = i
	}
	return k
}

// errHandleCollision and errHandleNotFound distinguish the two ways
// resolve can fail so callers can render the right message.
var (
	errHandleNotFound  = newStartupError("handle not found")
	errHandleCollision = newStartupError("handle collision")
)

// resolve returns the item recorded for handle, unless handle collided
// during the build, in which case it reports a collision.
func (k *keeper[T]) resolve(handle string) (T, error) {
	var zero T
	if _, collided := k.lookupCollisions[handle]; collided {
		return zero, errHandleCollision
	}
	idx, ok := k.lookupHandlers[handle]
	if !ok {
		return zero, errHandleNotFound
	}
	return k.kept[idx], nil
}

// indexOf is like resolve but returns the slot index instead of the item,
// for callers that need to mutate kept in place.
func (k *keeper[T]) indexOf(handle string) (int, error) {
	if _, collided := k.lookupCollisions[handle]; collided {
		return -1, errHandleCollision
	}
	idx, ok := k.lookupHandlers[handle]
	if !ok {
		return -1, errHandleNotFound
	}
	return idx, nil
}

// withItems rebuilds a keeper over a new slice of the same length,
// preserving the existing handle/index/collision tables. Used when a
// phase transition produces a new element type per slot (e.g.
// Composition -> Transitional) without touching handle resolution.
func withItems[T, U any](k *keeper[T], items []U) *keeper[U] {
	return &keeper[U]{
		kept:             items,
		lookupHandlers:   k.lookupHandlers,
		lookupCollisions: k.lookupCollisions,
	}
}
