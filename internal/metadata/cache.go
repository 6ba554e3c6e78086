package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/operator-framework/deppy/internal/errs"
)

// indexCache is an in-memory prefix tree keyed by repo/dist/component/arch
// path segments, adapted from the teacher's
// pkg/deppy/input/cache.PrefixCache: the same trie-of-segments shape,
// specialized here to a single value type (a cached file's on-disk path
// plus its digest) and trimmed to the operations the metadata pipeline
// actually needs (Get, Set, DeleteByPrefix for a whole repo's eviction).
type indexCache struct {
	mu   sync.RWMutex
	root *cacheNode
}

type cacheEntry struct {
	Path   string // on-disk path under the repo cache root
	Digest string
}

type cacheNode struct {
	children map[string]*cacheNode
	value    *cacheEntry
}

func newCacheNode() *cacheNode {
	return &cacheNode{children: map[string]*cacheNode{}}
}

func newIndexCache() *indexCache {
	return &indexCache{root: newCacheNode()}
}

func splitPath(key string) []string {
	return strings.Split(key, "/")
}

// Get looks up the cached entry for repo/dist/component/arch.
func (c *indexCache) Get(key string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := c.root
	for _, part := range splitPath(key) {
		child, ok := n.children[part]
		if !ok {
			return cacheEntry{}, false
		}
		n = child
	}
	if n.value == nil {
		return cacheEntry{}, false
	}
	return *n.value, true
}

// Set records the cached entry for repo/dist/component/arch.
func (c *indexCache) Set(key string, entry cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.root
	for _, part := range splitPath(key) {
		child, ok := n.children[part]
		if !ok {
			child = newCacheNode()
			n.children[part] = child
		}
		n = child
	}
	n.value = &entry
}

// DeleteByPrefix drops every cached entry under a repo (or
// repo/dist/component) prefix, used when a repo's trusted keys or suite
// configuration changes and its cached metadata can no longer be trusted.
func (c *indexCache) DeleteByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteByPrefix(c.root, splitPath(prefix), 0)
}

func (c *indexCache) deleteByPrefix(n *cacheNode, parts []string, i int) {
	if i == len(parts) {
		n.children = map[string]*cacheNode{}
		n.value = nil
		return
	}
	child, ok := n.children[parts[i]]
	if !ok {
		return
	}
	c.deleteByPrefix(child, parts, i+1)
	if len(child.children) == 0 && child.value == nil {
		delete(n.children, parts[i])
	}
}

// DiskCache is the on-disk counterpart to indexCache: cache_root-rooted
// storage for InRelease and Packages bodies, guarded by a single advisory
// flock for the run (spec.md §5: one process owns the cache at a time)
// and written via a .part-suffixed temp file renamed into place so a
// crash mid-write never leaves a corrupt file at its final path.
type DiskCache struct {
	Root  string
	index *indexCache
	lock  *flock.Flock
}

// NewDiskCache opens (without yet locking) a disk cache rooted at root.
func NewDiskCache(root string) *DiskCache {
	return &DiskCache{
		Root:  root,
		index: newIndexCache(),
		lock:  flock.New(filepath.Join(root, ".lock")),
	}
}

// Lock acquires the cache's advisory lock, creating root if needed.
// Callers must call Unlock when done.
func (d *DiskCache) Lock() error {
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return fmt.Errorf("%w: creating cache root %s: %v", errs.ErrIntegrity, d.Root, err)
	}
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking cache %s: %w", d.Root, err)
	}
	if !locked {
		return fmt.Errorf("cache %s is locked by another process", d.Root)
	}
	return nil
}

// Unlock releases the cache's advisory lock.
func (d *DiskCache) Unlock() error {
	return d.lock.Unlock()
}

// pathFor returns the on-disk path for repo/dist/component/arch/name, per
// spec.md §4.B's cache_root/<repo>/<dist>/<comp>/<arch>/<name> layout.
func (d *DiskCache) pathFor(repo, dist, component, arch, name string) string {
	return filepath.Join(d.Root, repo, dist, component, arch, name)
}

// Lookup consults the in-memory index first, falling back to nothing (the
// caller refetches) on a miss — this is what lets a cached hash lookup
// skip a directory walk on the common path.
func (d *DiskCache) Lookup(repo, dist, component, arch, name string) (cacheEntry, bool) {
	return d.index.Get(strings.Join([]string{repo, dist, component, arch, name}, "/"))
}

// Store writes body atomically to its cache path (via a .part-suffixed
// temp file renamed into place) and records it in the in-memory index.
func (d *DiskCache) Store(repo, dist, component, arch, name, digest string, body []byte) (string, error) {
	path := d.pathFor(repo, dist, component, arch, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("%w: creating cache dir for %s: %v", errs.ErrIntegrity, path, err)
	}

	part := path + ".part"
	if err := os.WriteFile(part, body, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", errs.ErrIntegrity, part, err)
	}
	if err := os.Rename(part, path); err != nil {
		return "", fmt.Errorf("%w: committing %s: %v", errs.ErrIntegrity, path, err)
	}

	d.index.Set(strings.Join([]string{repo, dist, component, arch, name}, "/"), cacheEntry{Path: path, Digest: digest})
	return path, nil
}

// Evict drops every cached entry for a repo, both on disk and in the
// in-memory index, used when a repo's configuration changes in a way
// that invalidates its prior metadata.
func (d *DiskCache) Evict(repo string) error {
	d.index.DeleteByPrefix(repo)
	if err := os.RemoveAll(filepath.Join(d.Root, repo)); err != nil {
		return fmt.Errorf("%w: evicting %s: %v", errs.ErrIntegrity, repo, err)
	}
	return nil
}
