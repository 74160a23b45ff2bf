package bus

type slotState int

const (
	slotEmpty slotState = iota
	slotPresent
	slotTaken
)

// slot holds at most one erased value. It moves empty -> present -> taken and
// never back to empty.
type slot struct {
	value any
	state slotState
}

func (s *slot) put(v any) {
	s.value = v
	s.state = slotPresent
}

func (s *slot) peek() (any, bool) {
	return s.value, s.state == slotPresent
}

func (s *slot) take() (any, slotState) {
	if s.state != slotPresent {
		return nil, s.state
	}

	v := s.value
	s.value = nil
	s.state = slotTaken
	return v, slotPresent
}
