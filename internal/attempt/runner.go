package attempt

import (
	"context"
	"time"

	"github.com/stemsi/exquiz-backend/internal/model"
)

// Runner drives a session's clock and forces submission when time runs out.
type Runner struct {
	session *Session
	ticks   <-chan time.Time
	stop    func()
	// OnTick, if set, is called after every tick with the remaining seconds.
	OnTick func(remaining int)
}

// NewRunner ticks session once per wall-clock second.
func NewRunner(session *Session) *Runner {
	t := time.NewTicker(time.Second)
	return &Runner{session: session, ticks: t.C, stop: t.Stop}
}

// NewRunnerWithTicks ticks session on every value from ticks.
func NewRunnerWithTicks(session *Session, ticks <-chan time.Time) *Runner {
	return &Runner{session: session, ticks: ticks, stop: func() {}}
}

// Run blocks until the attempt is finished, time runs out, or ctx is done.
// After a forced submission it returns whatever the server answered; a failed forced
// submission returns its error and leaves the session in SubmitFailed for a retry.
func (r *Runner) Run(ctx context.Context) (*model.SubmitTestResponse, error) {
	defer r.stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-r.session.Finished():
			return r.session.Result(), r.session.LastError()

		case <-r.ticks:
			expired := r.session.Tick()
			if r.OnTick != nil {
				r.OnTick(r.session.clock.Remaining())
			}
			if expired {
				return r.session.Submit(ctx)
			}
		}
	}
}
