package video

import "sync"

// ChunkBuffer keeps encoder output as the list of chunks it arrived in and
// joins them once at the end.
type ChunkBuffer struct {
	mu     sync.Mutex
	chunks [][]byte
	size   int
}

func (b *ChunkBuffer) Write(p []byte) (int, error) {
	chunk := make([]byte, len(p))
	copy(chunk, p)

	b.mu.Lock()
	b.chunks = append(b.chunks, chunk)
	b.size += len(p)
	b.mu.Unlock()
	return len(p), nil
}

func (b *ChunkBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

func (b *ChunkBuffer) Chunks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// Bytes concatenates all chunks in arrival order.
func (b *ChunkBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, 0, b.size)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	return out
}

func (b *ChunkBuffer) Reset() {
	b.mu.Lock()
	b.chunks, b.size = nil, 0
	b.mu.Unlock()
}
