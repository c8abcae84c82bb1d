package browser

import "sync"

// subscribers fans responses out to channel subscriptions.
// Publishing never blocks; a full subscriber misses the response.
type subscribers struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan Response
	closed bool
}

func newSubscribers() *subscribers {
	return &subscribers{subs: make(map[int]chan Response)}
}

func (s *subscribers) subscribe(buffer int) (<-chan Response, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Response, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.next
	s.next++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

func (s *subscribers) publish(r Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

func (s *subscribers) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
