package hir

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"modernc.org/memory"
)

// Arena is a scoped bump allocator over chunks obtained from
// modernc.org/memory, one per Graph; see spec.md §4.1. Nodes and their
// operand/effect/ref slices are ordinary Go values allocated by
// Graph.newNode and append, not by the arena, and nothing in this package
// calls Acquire, so the Stats that `sentra hir --stats` reports stay at
// zero unless a caller acquires memory from it directly.
type Arena struct {
	alloc      *memory.Allocator
	chunkSize  int
	maxChunk   int
	chunks     [][]byte
	used       int
	total      int
	exhausted  bool
}

const (
	defaultChunkSize = 4096
	defaultMaxChunk  = 1 << 20
)

// NewArena creates an empty arena with the default chunk-growth policy.
func NewArena() *Arena {
	return &Arena{
		alloc:     &memory.Allocator{},
		chunkSize: defaultChunkSize,
		maxChunk:  defaultMaxChunk,
	}
}

// Acquire returns n uninitialized, word-aligned bytes. It refills from a
// fresh chunk (doubling the chunk size up to maxChunk) when the current
// chunk cannot satisfy the request. On allocator failure it sets the
// exhausted flag and returns nil; callers must treat this as a Resource
// exhaustion error per spec.md §7.
func (a *Arena) Acquire(n int) []byte {
	if n <= 0 {
		return nil
	}
	if k := len(a.chunks); k > 0 {
		last := a.chunks[k-1]
		off := (len(last) + 7) &^ 7
		if off+n <= cap(last) {
			a.chunks[k-1] = last[:off+n]
			a.used += n
			return last[off : off+n : off+n]
		}
	}
	size := a.chunkSize
	for size < n {
		if size >= a.maxChunk {
			size = n
			break
		}
		size *= 2
	}
	buf, err := a.alloc.Malloc(size)
	if err != nil || buf == nil {
		a.exhausted = true
		return nil
	}
	buf = buf[:n]
	a.chunks = append(a.chunks, buf)
	a.used += n
	a.total += size
	if size > a.chunkSize && size < a.maxChunk {
		a.chunkSize = size
	}
	return buf
}

// Exhausted reports whether the last Acquire call failed.
func (a *Arena) Exhausted() bool { return a.exhausted }

// Reset releases every chunk back to the system; invalidates all live
// references into arena memory.
func (a *Arena) Reset() {
	for _, c := range a.chunks {
		_ = a.alloc.Free(c[:cap(c)])
	}
	a.alloc = &memory.Allocator{}
	a.chunks = nil
	a.used = 0
	a.total = 0
	a.exhausted = false
}

// Stats reports current capacity, used bytes, total bytes and chunk count.
type Stats struct {
	Capacity   int
	Used       int
	Total      int
	ChunkCount int
}

func (a *Arena) Stats() Stats {
	return Stats{
		Capacity:   a.chunkSize,
		Used:       a.used,
		Total:      a.total,
		ChunkCount: len(a.chunks),
	}
}

// String renders human-readable byte counts for CLI --stats output.
func (s Stats) String() string {
	return fmt.Sprintf("used=%s total=%s chunks=%d chunk_size=%s",
		humanize.Bytes(uint64(s.Used)), humanize.Bytes(uint64(s.Total)),
		s.ChunkCount, humanize.Bytes(uint64(s.Capacity)))
}
