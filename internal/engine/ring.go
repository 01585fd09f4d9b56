package engine

// ring is a fixed-capacity FIFO buffer. Pushing onto a full ring evicts
// the oldest element, so append+evict is O(1).
type ring[T any] struct {
	buf   []T
	start int
	n     int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring[T]) len() int {
	return r.n
}

func (r *ring[T]) clear() {
	r.start = 0
	r.n = 0
}

// values returns the buffered elements oldest-first as a fresh slice.
func (r *ring[T]) values() []T {
	out := make([]T, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
