// Package view renders whole collections into named regions of a
// terminal document. A region is always replaced wholesale: after a
// refresh nothing from the previous render can survive, which is what
// makes concurrent out-of-order fetch completions safe to apply.
package view

import (
	"strings"
	"sync"
)

// Document is an ordered set of named text regions. Region order is
// fixed at construction; content changes one region at a time.
type Document struct {
	mu      sync.Mutex
	order   []string
	regions map[string]string
}

func NewDocument(names ...string) *Document {
	d := &Document{
		order:   make([]string, len(names)),
		regions: make(map[string]string, len(names)),
	}
	copy(d.order, names)
	return d
}

// Replace swaps the entire content of a region. Unknown regions are
// ignored.
func (d *Document) Replace(name, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.regions[name]; !ok {
		known := false
		for _, n := range d.order {
			if n == name {
				known = true
				break
			}
		}
		if !known {
			return
		}
	}
	d.regions[name] = content
}

// Content returns the current content of a region.
func (d *Document) Content(name string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regions[name]
}

// Render joins the non-empty regions in document order.
func (d *Document) Render() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	parts := make([]string, 0, len(d.order))
	for _, name := range d.order {
		if content := d.regions[name]; content != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, "\n")
}
