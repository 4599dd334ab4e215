package averager

// Listener receives the average of a bin when it closes, together with the
// closed bin's bounds. Listeners run synchronously inside AppendSample, in
// registration order; a panicking listener is not recovered.
type Listener[T any] func(avg T, closed Bounds)

// ChannelListener forwards every closed-bin average to ch. The send blocks,
// so ch must be drained by the caller or be buffered.
func ChannelListener[T any](ch chan<- T) Listener[T] {
	return func(avg T, _ Bounds) {
		ch <- avg
	}
}

type subscription[T any] struct {
	id int
	fn Listener[T]
}

// listeners is a registry of bin-closed subscribers. Not safe for concurrent use.
type listeners[T any] struct {
	nextID int
	subs   []subscription[T]
}

func (l *listeners[T]) add(fn Listener[T]) (cancel func()) {
	id := l.nextID
	l.nextID++
	l.subs = append(l.subs, subscription[T]{id: id, fn: fn})

	return func() {
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

func (l *listeners[T]) notify(avg T, closed Bounds) {
	// Copy so a listener cancelling itself does not disturb the iteration.
	subs := append([]subscription[T](nil), l.subs...)
	for _, s := range subs {
		s.fn(avg, closed)
	}
}
