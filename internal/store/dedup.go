package store

import (
	"container/list"
	"sync"

	"github.com/guillem8cbii/basquet/internal/model"
)

// Dedup is a bounded LRU set of match keys. When full, the least recently seen
// key is forgotten.
type Dedup struct {
	mu    sync.Mutex
	cap   int
	ll    *list.List               // most-recent at front
	items map[string]*list.Element // key -> element
}

func NewDedup(maxKeys int) *Dedup {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &Dedup{cap: maxKeys, ll: list.New(), items: make(map[string]*list.Element)}
}

// Seen reports whether key was marked, and marks it.
func (d *Dedup) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.items[key]; ok {
		d.ll.MoveToFront(el)
		return true
	}
	d.items[key] = d.ll.PushFront(key)
	for d.ll.Len() > d.cap {
		t := d.ll.Back()
		d.ll.Remove(t)
		delete(d.items, t.Value.(string))
	}
	return false
}

// Len returns the number of remembered keys.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ll.Len()
}

// Filter keeps the first occurrence of each match, by Match.Key, preserving order.
func (d *Dedup) Filter(matches []model.Match) (kept []model.Match, dropped int) {
	kept = make([]model.Match, 0, len(matches))
	for _, m := range matches {
		if d.Seen(m.Key()) {
			dropped++
			continue
		}
		kept = append(kept, m)
	}
	return kept, dropped
}
