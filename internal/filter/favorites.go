package filter

import (
	"sync/atomic"
)

// FavoriteSet is an immutable view of the favorite ids at one version.
type FavoriteSet struct {
	ids     map[string]struct{}
	version uint64
}

// Contains reports whether id is a favorite. The zero value contains nothing.
func (s FavoriteSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Version identifies this set; it changes on every Set.
func (s FavoriteSet) Version() uint64 { return s.version }

// Len returns the number of favorites.
func (s FavoriteSet) Len() int { return len(s.ids) }

// Favorites holds the user's favorite exercise ids. Readers take a
// FavoriteSet and never lock; Set publishes a new one.
type Favorites struct {
	current atomic.Pointer[FavoriteSet]
	version atomic.Uint64
}

// NewFavorites returns a set holding ids.
func NewFavorites(ids ...string) *Favorites {
	f := &Favorites{}
	f.Set(ids)
	return f
}

// Set replaces the favorite ids.
func (f *Favorites) Set(ids []string) {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			m[id] = struct{}{}
		}
	}
	f.current.Store(&FavoriteSet{ids: m, version: f.version.Add(1)})
}

// Snapshot returns the current set. A nil *Favorites yields an empty set.
func (f *Favorites) Snapshot() FavoriteSet {
	if f == nil {
		return FavoriteSet{}
	}
	if s := f.current.Load(); s != nil {
		return *s
	}
	return FavoriteSet{}
}

// IDs returns the favorite ids in no particular order.
func (f *Favorites) IDs() []string {
	s := f.Snapshot()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}
