package query

import (
	"alcyxob/exercise-catalog/internal/domain"
	"context"
	"sync"
	"time"
)

// DefaultDebounce is how long search input must be stable before it runs.
const DefaultDebounce = 275 * time.Millisecond

// Debouncer runs fn with the last submitted text once no new text has
// arrived for the delay. A new Submit stops the pending timer and cancels
// the context of a run already in progress; it never queues behind it.
type Debouncer struct {
	delay time.Duration
	fn    func(ctx context.Context, text string, mark uint64)
	// mark, when set, is sampled at Submit and handed to fn with the text.
	mark func() uint64

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// NewDebouncer returns a debouncer. A non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration, fn func(ctx context.Context, text string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, fn: func(ctx context.Context, text string, _ uint64) { fn(ctx, text) }}
}

// Submit schedules text, superseding anything submitted before.
func (d *Debouncer) Submit(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.supersedeLocked()

	d.seq++
	seq := d.seq
	var mark uint64
	if d.mark != nil {
		mark = d.mark()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := seq == d.seq && !d.closed
		d.mu.Unlock()
		if !current {
			return
		}
		d.fn(ctx, text, mark)
	})
}

// Stop cancels pending and running work. Later Submits are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.supersedeLocked()
}

func (d *Debouncer) supersedeLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// SearchDebouncer feeds debounced search text into e. Each fired text keeps
// the rest of the engine's current filter and reloads page zero; onResult,
// if set, receives the committed state. A first-page load started on e
// after the text was submitted supersedes it, so the text is dropped.
func (e *Engine) SearchDebouncer(delay time.Duration, onResult func(State)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{
		delay: delay,
		mark:  e.generation,
		fn: func(ctx context.Context, text string, mark uint64) {
			st, ran := e.loadFirstPage(ctx, func(cur State) (domain.FilterSpec, bool) {
				if ctx.Err() != nil || e.gen != mark {
					return domain.FilterSpec{}, false
				}
				spec := cur.Spec
				spec.Query = text
				return spec, true
			})
			if ran && ctx.Err() == nil && onResult != nil {
				onResult(st)
			}
		},
	}
}
