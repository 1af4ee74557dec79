package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrRosterExhausted means every roster entry failed once in the current
// streak.
var ErrRosterExhausted = eris.New("llm: every model in the roster failed")

// RotationState is the failover position carried between calls. Index is
// the roster entry tried first; Failures counts consecutive failed
// attempts since the last success.
type RotationState struct {
	Index    int
	Failures int
}

// Complete tries the roster starting at state.Index. Any error advances to
// the next entry. The call stops with ErrRosterExhausted once every entry
// has failed in the current streak, and the streak restarts on the next
// call. A success resets Failures and keeps Index on the entry that worked.
func Complete(ctx context.Context, roster []Provider, state RotationState, req Request) (string, RotationState, error) {
	n := len(roster)
	if n == 0 {
		return "", state, ErrRosterExhausted
	}
	state.Index = ((state.Index % n) + n) % n

	var errs []string
	for state.Failures < n {
		if err := ctx.Err(); err != nil {
			return "", state, eris.Wrap(err, "llm: complete")
		}
		p := roster[state.Index]
		text, err := p.Complete(ctx, req)
		if err == nil {
			state.Failures = 0
			return text, state, nil
		}

		zap.L().Warn("llm: model failed, rotating",
			zap.String("provider", p.Name()),
			zap.String("task", req.Task),
			zap.Int("streak", state.Failures+1),
			zap.Error(err),
		)
		errs = append(errs, p.Name()+": "+err.Error())
		state.Failures++
		state.Index = (state.Index + 1) % n
	}

	state.Failures = 0
	return "", state, eris.Wrap(ErrRosterExhausted, strings.Join(errs, "; "))
}

// Rotator owns a roster and its rotation state for a long-lived process.
// Calls are serialized so the state advances consistently.
type Rotator struct {
	roster []Provider

	mu    sync.Mutex
	state RotationState
}

// NewRotator creates a rotator over roster in priority order.
func NewRotator(roster ...Provider) *Rotator {
	return &Rotator{roster: roster}
}

// Complete runs req against the roster.
func (r *Rotator) Complete(ctx context.Context, req Request) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	text, next, err := Complete(ctx, r.roster, r.state, req)
	r.state = next
	return text, err
}

// State returns the current rotation state.
func (r *Rotator) State() RotationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Names lists the roster in priority order.
func (r *Rotator) Names() []string {
	names := make([]string, len(r.roster))
	for i, p := range r.roster {
		names[i] = p.Name()
	}
	return names
}
