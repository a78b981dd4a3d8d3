package lod

import (
	"slices"
	"strings"
	"sync"

	"planet-lod/internal/meshing"
)

// chunkStore holds the meshes currently handed to the renderer. Only the loop
// writes; snapshots may be taken from other goroutines.
type chunkStore struct {
	chunks   map[meshing.ChunkKey]*meshing.Mesh
	mu       sync.RWMutex
	modCount uint64 // Increases on any chunk add/remove
}

func newChunkStore() *chunkStore {
	return &chunkStore{chunks: make(map[meshing.ChunkKey]*meshing.Mesh)}
}

func (cs *chunkStore) has(key meshing.ChunkKey) bool {
	cs.mu.RLock()
	_, ok := cs.chunks[key]
	cs.mu.RUnlock()
	return ok
}

func (cs *chunkStore) add(key meshing.ChunkKey, m *meshing.Mesh) {
	cs.mu.Lock()
	cs.chunks[key] = m
	cs.modCount++
	cs.mu.Unlock()
}

func (cs *chunkStore) remove(key meshing.ChunkKey) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[key]; !ok {
		return false
	}
	delete(cs.chunks, key)
	cs.modCount++
	return true
}

func (cs *chunkStore) len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

func (cs *chunkStore) version() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// snapshot returns the attached meshes ordered by key.
func (cs *chunkStore) snapshot() []*meshing.Mesh {
	cs.mu.RLock()
	out := make([]*meshing.Mesh, 0, len(cs.chunks))
	for _, m := range cs.chunks {
		out = append(out, m)
	}
	cs.mu.RUnlock()
	slices.SortFunc(out, func(a, b *meshing.Mesh) int {
		return strings.Compare(a.Key.String(), b.Key.String())
	})
	return out
}
