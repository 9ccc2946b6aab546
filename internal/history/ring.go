package history

// ring is a fixed-size circular buffer.
type ring[T any] struct {
	data  []T
	head  int
	count int
}

func newRing[T any](size int) *ring[T] {
	return &ring[T]{data: make([]T, size)}
}

func (r *ring[T]) push(v T) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

// last returns up to count values, oldest first.
func (r *ring[T]) last(count int) []T {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	size := len(r.data)
	out := make([]T, count)
	// head is the next write slot, so the newest value sits at head-1.
	start := (r.head - count + size) % size
	for i := range count {
		out[i] = r.data[(start+i)%size]
	}
	return out
}
