package inference

// role says which endpoint an attempt goes to
type role int

const (
	rolePrimary role = iota
	roleFallback
)

func (r role) String() string {
	if r == roleFallback {
		return "fallback"
	}
	return "primary"
}

type phase int

const (
	phaseAttempting phase = iota
	phaseSucceeded
	phaseFailed
)

// event is what one attempt produced
type event int

const (
	eventSuccess event = iota
	eventTransient
	eventTerminal
)

func eventFor(err error) event {
	if err == nil {
		return eventSuccess
	}
	if Classify(err) == KindTransient {
		return eventTransient
	}
	return eventTerminal
}

// state of the retry loop between attempts
type state struct {
	attempt int
	role    role
	phase   phase
	// switched is set on the transition that moved to the fallback endpoint,
	// so the caller knows to warm it up before the next attempt
	switched bool
	// backoff to wait before the next attempt
	backoffUnits int
}

func initialState() state {
	return state{attempt: 1, role: rolePrimary, phase: phaseAttempting}
}

// next is the pure transition of the retry loop. The endpoint moves from
// primary to fallback only after the first transient failure, and never
// moves back.
func next(s state, ev event, maxAttempts int) state {
	s.switched = false
	s.backoffUnits = 0

	switch ev {
	case eventSuccess:
		s.phase = phaseSucceeded
		return s
	case eventTerminal:
		s.phase = phaseFailed
		return s
	}

	if s.attempt >= maxAttempts {
		s.phase = phaseFailed
		return s
	}

	if s.attempt == 1 && s.role == rolePrimary {
		s.role = roleFallback
		s.switched = true
	}
	s.backoffUnits = s.attempt
	s.attempt++
	return s
}

func (s state) done() bool {
	return s.phase != phaseAttempting
}
