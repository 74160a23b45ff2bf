package bus

import (
	"io"
	"sort"
	"sync"
)

// Storage is the erased registry behind a Bus. One lock guards every map;
// it is taken at wiring time, not on the message path.
type Storage struct {
	mu     sync.RWMutex
	closed bool

	channels  map[Identity]struct{}
	capacity  map[Identity]int
	tx        map[Identity]*slot
	rx        map[Identity]*slot
	resources map[Identity]*slot

	// configured capacities by message name
	configured map[string]int
}

func NewStorage() *Storage {
	return &Storage{
		channels:   make(map[Identity]struct{}),
		capacity:   make(map[Identity]int),
		tx:         make(map[Identity]*slot),
		rx:         make(map[Identity]*slot),
		resources:  make(map[Identity]*slot),
		configured: make(map[string]int),
	}
}

// link builds the pair for id unless it is already linked. It reports the
// capacity used and whether this call did the construction.
func (s *Storage) link(id Identity, construct func(capacity int) (any, any), defaultCapacity int) (int, bool, error) {
	s.mu.RLock()
	_, linked := s.channels[id]
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return 0, false, ErrBusClosed
	}
	if linked {
		return 0, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, false, ErrBusClosed
	}
	if _, ok := s.channels[id]; ok {
		return 0, false, nil
	}

	capacity := defaultCapacity
	if n, ok := s.configured[id.name]; ok {
		capacity = n
	}
	if n, ok := s.capacity[id]; ok {
		capacity = n
	}

	tx, rx := construct(capacity)

	txSlot, rxSlot := &slot{}, &slot{}
	txSlot.put(tx)
	rxSlot.put(rx)

	s.tx[id] = txSlot
	s.rx[id] = rxSlot
	s.channels[id] = struct{}{}

	return capacity, true, nil
}

func (s *Storage) setCapacity(id Identity, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrBusClosed
	}
	if _, ok := s.channels[id]; ok {
		return ErrAlreadyLinked
	}

	s.capacity[id] = n
	return nil
}

// store links id with only the given halves. A nil slot value means the half
// was not provided.
func (s *Storage) store(id Identity, tx, rx *slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrBusClosed
	}
	if _, ok := s.channels[id]; ok {
		return ErrAlreadyLinked
	}

	s.tx[id] = tx
	s.rx[id] = rx
	s.channels[id] = struct{}{}
	return nil
}

// withSlots runs fn on the tx and rx slots of a linked id under the write
// lock.
func (s *Storage) withSlots(id Identity, fn func(tx, rx *slot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrBusClosed
	}

	tx, rx := s.tx[id], s.rx[id]
	if tx == nil || rx == nil {
		return ErrPartialTake
	}
	return fn(tx, rx)
}

func (s *Storage) putResource(id Identity, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrBusClosed
	}

	r, ok := s.resources[id]
	if !ok {
		r = &slot{}
		s.resources[id] = r
	}
	r.put(v)
	return nil
}

func (s *Storage) withResource(id Identity, fn func(r *slot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrBusClosed
	}

	r, ok := s.resources[id]
	if !ok {
		return ErrResourceUninitialized
	}
	return fn(r)
}

func (s *Storage) linked(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id := range s.channels {
		if id.name == name {
			return true
		}
	}
	return false
}

func (s *Storage) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.channels))
	for id := range s.channels {
		names = append(names, id.name)
	}
	sort.Strings(names)
	return names
}

// close empties every slot and returns the held values that know how to
// release themselves.
func (s *Storage) close() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var closers []func()
	drain := func(slots map[Identity]*slot) {
		for _, sl := range slots {
			v, state := sl.take()
			if state != slotPresent {
				continue
			}
			switch c := v.(type) {
			case interface{ Close() }:
				closers = append(closers, c.Close)
			case io.Closer:
				closers = append(closers, func() { _ = c.Close() })
			}
		}
	}

	drain(s.tx)
	drain(s.rx)
	drain(s.resources)

	return closers
}
