// Package event provides typed observer lists owned by the entity that
// emits them. Dispatch is synchronous: Publish returns after every handler
// has run. Feeds are not safe for concurrent use; the simulation drives
// them from a single thread.
package event

// Handler receives a published value.
type Handler[T any] func(T)

// Subscription represents a registered handler. Unsubscribe stops delivery
// and may be called more than once.
type Subscription interface {
	Unsubscribe()
}

// Feed is a list of handlers for values of type T. The zero Feed is ready
// to use.
type Feed[T any] struct {
	subs   []entry[T]
	nextID int
}

type entry[T any] struct {
	id      int
	handler Handler[T]
}

// Subscribe registers h. A nil handler yields a no-op subscription.
func (f *Feed[T]) Subscribe(h Handler[T]) Subscription {
	if h == nil {
		return noopSubscription{}
	}
	f.nextID++
	id := f.nextID
	f.subs = append(f.subs, entry[T]{id: id, handler: h})
	return subscription{cancel: func() { f.remove(id) }}
}

// Publish delivers v to every handler registered when Publish was called,
// in registration order.
func (f *Feed[T]) Publish(v T) {
	if len(f.subs) == 0 {
		return
	}
	handlers := append([]entry[T](nil), f.subs...)
	for _, e := range handlers {
		e.handler(v)
	}
}

// Len returns the number of registered handlers.
func (f *Feed[T]) Len() int {
	return len(f.subs)
}

// Clear drops every handler.
func (f *Feed[T]) Clear() {
	f.subs = nil
}

func (f *Feed[T]) remove(id int) {
	for i, e := range f.subs {
		if e.id == id {
			f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
			return
		}
	}
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type subscription struct {
	cancel func()
}

func (s subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}
