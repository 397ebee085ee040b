package tree

import (
	"strings"
	"sync"

	"github.com/rostree/rostree/pkg/manifest"
)

// Memo caches finder and parser outputs. Within one build it collapses
// the cost of diamond dependencies from edge count to distinct node
// count; held across builds (a long-lived process such as the web
// backend) it also spans requests until explicitly invalidated.
//
// Entries are filled under the write lock, so a reader never observes
// a partially written entry. Negative results (not found, parse
// failure) are cached like positive ones: re-walking source trees for
// a name that is not there is exactly the cost the memo exists to
// avoid.
type Memo struct {
	mu        sync.Mutex
	paths     map[string]pathEntry
	manifests map[string]manifestEntry
}

type pathEntry struct {
	path string
	ok   bool
}

type manifestEntry struct {
	pkg *manifest.Package
	err error
}

// NewMemo creates an empty memo.
func NewMemo() *Memo {
	m := &Memo{}
	m.reset()
	return m
}

func (m *Memo) reset() {
	m.paths = make(map[string]pathEntry)
	m.manifests = make(map[string]manifestEntry)
}

// Invalidate discards all cached entries. Callers use it to honor an
// explicit refresh request; the memo never expires entries on its own.
func (m *Memo) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

// Resolve returns the memoized resolution for key, computing and
// storing it via fn on a miss. The key must encode everything the
// lookup depends on (name plus any extra source roots).
func (m *Memo) Resolve(key string, fn func() (string, bool)) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.paths[key]; ok {
		return e.path, e.ok
	}
	path, ok := fn()
	m.paths[key] = pathEntry{path: path, ok: ok}
	return path, ok
}

// Parse returns the memoized parse for (path, include), computing and
// storing it via fn on a miss.
func (m *Memo) Parse(path string, include manifest.KindSet, fn func() (*manifest.Package, error)) (*manifest.Package, error) {
	key := path + "|" + include.Key()
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.manifests[key]; ok {
		return e.pkg, e.err
	}
	pkg, err := fn()
	m.manifests[key] = manifestEntry{pkg: pkg, err: err}
	return pkg, err
}

// resolveKey builds the memo key for a name under extra source roots.
func resolveKey(name string, extraRoots []string) string {
	if len(extraRoots) == 0 {
		return name
	}
	return name + "|" + strings.Join(extraRoots, ":")
}
