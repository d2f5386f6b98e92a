// Package oplog records the operations invoked on fake services so tests can
// assert on them, and lets tests inject results or failures into the next
// invocation of a given operation.
package oplog

import (
	"slices"
	"sync"
)

// Call is one recorded invocation.
type Call struct {
	Op   string
	Args []any
}

// Outcome is what Record hands back to the component that invoked it.
// When Stubbed is true the component returns Value/Err instead of its own
// result.
type Outcome struct {
	Value   any
	Err     error
	Stubbed bool
}

// Log is safe for concurrent use. The zero value is not usable; call New.
type Log struct {
	mu    sync.Mutex
	calls []Call
	stubs map[string][]Outcome
}

func New() *Log {
	return &Log{stubs: make(map[string][]Outcome)}
}

// Record appends a call and pops the next queued outcome for op, if any.
func (l *Log) Record(op string, args ...any) Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, Call{Op: op, Args: slices.Clone(args)})
	queue := l.stubs[op]
	if len(queue) == 0 {
		return Outcome{}
	}
	out := queue[0]
	l.stubs[op] = queue[1:]
	return out
}

// FailNext makes the next invocation of op return err.
func (l *Log) FailNext(op string, err error) {
	l.push(op, Outcome{Err: err, Stubbed: true})
}

// ReturnNext makes the next invocation of op return v. Only operations with
// a free-form result honour value stubs.
func (l *Log) ReturnNext(op string, v any) {
	l.push(op, Outcome{Value: v, Stubbed: true})
}

func (l *Log) push(op string, o Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stubs[op] = append(l.stubs[op], o)
}

// Calls returns the recorded calls of op in invocation order.
func (l *Log) Calls(op string) []Call {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Call
	for _, c := range l.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (l *Log) Count(op string) int { return len(l.Calls(op)) }

func (l *Log) Called(op string) bool { return l.Count(op) > 0 }

// LastArgs returns the arguments of the most recent call of op.
func (l *Log) LastArgs(op string) ([]any, bool) {
	calls := l.Calls(op)
	if len(calls) == 0 {
		return nil, false
	}
	return calls[len(calls)-1].Args, true
}

// All returns every recorded call.
func (l *Log) All() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.calls)
}

// Reset forgets recorded calls and pending stubs.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
	l.stubs = make(map[string][]Outcome)
}
