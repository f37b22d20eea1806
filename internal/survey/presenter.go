package survey

import (
	"errors"
	"time"
)

// State is the presenter's position in the question lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
	StateLogging
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting-response"
	case StateLogging:
		return "logging"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ErrNoCurrentQuestion is returned when a response arrives while no question
// is on display.
var ErrNoCurrentQuestion = errors.New("survey: no current question")

// ErrNotIdle is returned when answered items are marked after presentation
// has started.
var ErrNotIdle = errors.New("survey: presenter already started")

// Response pairs the answered question with its reaction time.
type Response struct {
	Question Question
	Elapsed  time.Duration
}

// Presenter walks a question set in a fixed order, one item at a time.
type Presenter struct {
	set      QuestionSet
	order    []int
	next     int
	answered map[string]struct{}

	current  Question
	position int
	started  time.Time
	pending  Response
	state    State

	now func() time.Time
}

// NewPresenter creates a presenter over set in the given order. A nil clock
// defaults to time.Now.
func NewPresenter(set QuestionSet, order []int, now func() time.Time) *Presenter {
	if now == nil {
		now = time.Now
	}
	return &Presenter{
		set:      set,
		order:    append([]int(nil), order...),
		answered: make(map[string]struct{}, set.Len()),
		now:      now,
	}
}

// State returns the current lifecycle state.
func (p *Presenter) State() State {
	return p.state
}

// MarkAnswered records items answered in an earlier run so Next skips them.
// IDs that are not part of the set are ignored.
func (p *Presenter) MarkAnswered(ids ...string) error {
	if p.state != StateIdle {
		return ErrNotIdle
	}
	for _, id := range ids {
		if p.set.Index(id) < 0 {
			continue
		}
		p.answered[id] = struct{}{}
	}
	return nil
}

// Next presents the next unanswered question. It returns false once the set
// is exhausted, at which point the presenter is Complete.
func (p *Presenter) Next() (Question, bool) {
	if p.state == StateComplete {
		return Question{}, false
	}
	for p.next < len(p.order) {
		idx := p.order[p.next]
		p.next++
		q := p.set.At(idx)
		if _, done := p.answered[q.ID]; done {
			continue
		}
		p.current = q
		p.position = p.next
		p.pending = Response{}
		p.started = p.now()
		p.state = StateAwaitingResponse
		return q, true
	}
	p.current = Question{}
	p.position = 0
	p.state = StateComplete
	return Question{}, false
}

// Current returns the question on display, if any.
func (p *Presenter) Current() (Question, bool) {
	switch p.state {
	case StateAwaitingResponse, StateLogging:
		return p.current, true
	default:
		return Question{}, false
	}
}

// Respond stops the clock on the current question and moves to Logging.
// Calling it again while Logging returns the same response.
func (p *Presenter) Respond() (Response, error) {
	switch p.state {
	case StateLogging:
		return p.pending, nil
	case StateAwaitingResponse:
		elapsed := p.now().Sub(p.started)
		if elapsed < 0 {
			elapsed = 0
		}
		p.pending = Response{Question: p.current, Elapsed: elapsed}
		p.answered[p.current.ID] = struct{}{}
		p.state = StateLogging
		return p.pending, nil
	default:
		return Response{}, ErrNoCurrentQuestion
	}
}

// Position returns the 1-based place of the current question in the order
// and the total number of questions.
func (p *Presenter) Position() (int, int) {
	return p.position, len(p.order)
}

// Answered returns how many questions have been answered, including those
// restored through MarkAnswered.
func (p *Presenter) Answered() int {
	return len(p.answered)
}
