// Package quiz runs a self-quiz over a shuffled snapshot of cards.
//
// A session moves Idle -> AwaitingReveal -> Revealed -> (AwaitingReveal ...)
// -> Completed. Exit returns it to Idle from anywhere.
package quiz

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// State is the position of a session in its lifecycle.
type State int

const (
	Idle State = iota
	AwaitingReveal
	Revealed
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingReveal:
		return "awaiting reveal"
	case Revealed:
		return "revealed"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session holds one quiz run. The zero value is not usable; call New.
type Session struct {
	rng *rand.Rand

	state   State
	queue   []domain.Card
	index   int
	correct int
	wrong   int
}

// New creates an idle session. A nil rng uses a randomly seeded source.
func New(rng *rand.Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Session{rng: rng}
}

// Start begins a quiz over a shuffled copy of snapshot. Later changes to the
// caller's cards do not reach the queue.
func (s *Session) Start(snapshot []domain.Card) error {
	if len(snapshot) == 0 {
		return domain.ErrEmptyQueue
	}

	queue := make([]domain.Card, len(snapshot))
	for i, c := range snapshot {
		queue[i] = c.Clone()
	}
	// Fisher-Yates
	for i := len(queue) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		queue[i], queue[j] = queue[j], queue[i]
	}

	s.queue = queue
	s.index = 0
	s.correct = 0
	s.wrong = 0
	s.state = AwaitingReveal
	return nil
}

// Reveal shows the back of the current card. Calling it again once revealed
// does nothing.
func (s *Session) Reveal() error {
	switch s.state {
	case AwaitingReveal:
		s.state = Revealed
		return nil
	case Revealed:
		return nil
	default:
		return domain.NewInvalidStateError("reveal", s.state.String())
	}
}

// Answer records whether the current card was answered correctly and moves
// to the next card, completing the session after the last one.
func (s *Session) Answer(wasCorrect bool) error {
	if s.state != Revealed {
		return domain.NewInvalidStateError("answer", s.state.String())
	}

	if wasCorrect {
		s.correct++
	} else {
		s.wrong++
	}
	s.index++

	if s.index == len(s.queue) {
		s.state = Completed
		return nil
	}
	s.state = AwaitingReveal
	return nil
}

// Exit discards the session.
func (s *Session) Exit() {
	s.state = Idle
	s.queue = nil
	s.index = 0
	s.correct = 0
	s.wrong = 0
}

func (s *Session) State() State      { return s.state }
func (s *Session) Index() int        { return s.index }
func (s *Session) Len() int          { return len(s.queue) }
func (s *Session) CorrectCount() int { return s.correct }
func (s *Session) WrongCount() int   { return s.wrong }

// IsRevealed reports whether the current card's back is shown.
func (s *Session) IsRevealed() bool { return s.state == Revealed }

// Current returns the card being asked, if any.
func (s *Session) Current() (domain.Card, bool) {
	if s.state != AwaitingReveal && s.state != Revealed {
		return domain.Card{}, false
	}
	return s.queue[s.index], true
}

// Queue returns a copy of the session's card order.
func (s *Session) Queue() []domain.Card {
	out := make([]domain.Card, len(s.queue))
	copy(out, s.queue)
	return out
}

// Score is the percentage of correct answers over the whole queue, rounded
// to the nearest percent.
func (s *Session) Score() int {
	if len(s.queue) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(s.correct) / float64(len(s.queue))))
}

// Progress describes the position within the queue, e.g. "Card 2 of 5".
func (s *Session) Progress() string {
	if len(s.queue) == 0 {
		return ""
	}
	n := s.index + 1
	if n > len(s.queue) {
		n = len(s.queue)
	}
	return fmt.Sprintf("Card %d of %d", n, len(s.queue))
}

// Summary is the completion message, empty until the session completes.
func (s *Session) Summary() string {
	if s.state != Completed {
		return ""
	}
	return fmt.Sprintf("Done! %d/%d correct (%d%%).", s.correct, len(s.queue), s.Score())
}
