package tween

import (
	"slices"
	"time"

	"github.com/ocfkit/ocf/internal/core/value"
)

type Status uint8

const (
	InProgress Status = iota
	Done
)

// Task is one suspended unit of work resumed once per tick.
type Task interface {
	// Owner identifies the controllable the task writes to.
	Owner() string
	// Advance moves the task forward by dt and performs this tick's write.
	Advance(dt time.Duration) Status
}

// ValueTask eases a single value from a start to an end over a duration.
type ValueTask struct {
	owner    string
	from, to value.Value
	duration time.Duration
	elapsed  time.Duration
	style    Style
	write    func(value.Value)
}

// NewValueTask creates a tween. The start value is captured now; write is
// called once per Advance with the in-progress value and finally with to.
func NewValueTask(owner string, from, to value.Value, duration time.Duration, style Style, write func(value.Value)) *ValueTask {
	return &ValueTask{
		owner:    owner,
		from:     from,
		to:       value.Coerce(to, from.Kind()),
		duration: duration,
		style:    style,
		write:    write,
	}
}

func (t *ValueTask) Owner() string { return t.owner }

func (t *ValueTask) Advance(dt time.Duration) Status {
	t.elapsed += dt
	if t.elapsed >= t.duration || !t.from.Kind().Interpolable() {
		t.write(t.to)
		return Done
	}
	progress := float64(t.elapsed) / float64(t.duration)
	t.write(value.Lerp(t.from, t.to, t.style.Eval(progress)))
	return InProgress
}

// Wait fires a callback once the duration has elapsed.
type Wait struct {
	owner    string
	duration time.Duration
	elapsed  time.Duration
	fn       func()
}

func NewWait(owner string, duration time.Duration, fn func()) *Wait {
	return &Wait{owner: owner, duration: duration, fn: fn}
}

func (w *Wait) Owner() string { return w.owner }

func (w *Wait) Advance(dt time.Duration) Status {
	w.elapsed += dt
	if w.elapsed < w.duration {
		return InProgress
	}
	if w.fn != nil {
		w.fn()
	}
	return Done
}

// Scheduler holds the running tasks. It is driven by a single goroutine.
type Scheduler struct {
	tasks     []Task
	advancing bool
	cancelled map[string]struct{}
}

func NewScheduler() *Scheduler {
	return &Scheduler{cancelled: make(map[string]struct{})}
}

// Start adds a task; it is first advanced on the next Advance call.
func (s *Scheduler) Start(t Task) {
	s.tasks = append(s.tasks, t)
}

// Advance resumes every task once, in start order, and drops finished ones.
// Tasks started while advancing wait for the next tick.
func (s *Scheduler) Advance(dt time.Duration) {
	running := s.tasks
	s.tasks = nil
	s.advancing = true

	var kept []Task
	for _, t := range running {
		if _, gone := s.cancelled[t.Owner()]; gone {
			continue
		}
		if t.Advance(dt) == InProgress {
			kept = append(kept, t)
		}
	}

	s.advancing = false
	if len(s.cancelled) > 0 {
		kept = slices.DeleteFunc(kept, func(t Task) bool {
			_, gone := s.cancelled[t.Owner()]
			return gone
		})
		clear(s.cancelled)
	}
	s.tasks = append(kept, s.tasks...)
}

// Cancel drops every task of the owner without a final write.
func (s *Scheduler) Cancel(owner string) {
	s.tasks = slices.DeleteFunc(s.tasks, func(t Task) bool { return t.Owner() == owner })
	if s.advancing {
		s.cancelled[owner] = struct{}{}
	}
}

// Len returns the number of running tasks.
func (s *Scheduler) Len() int {
	return len(s.tasks)
}
