// Package stream bridges pushed response chunks to a pull-based iterator.
package stream

import (
	"context"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/acp-client-go/internal/errors"
)

// Turn is one prompt-to-completion cycle.
//
// Producers call Push from the read loop and never block; the single
// consumer pulls chunks through Seq. A Turn finishes exactly once, by
// Complete, Fail, or an armed grace timer. Chunks pushed after that are
// dropped.
type Turn struct {
	id       string
	started  time.Time
	onFinish func(*Turn)

	mu       sync.Mutex
	queue    []string
	text     strings.Builder
	finished bool
	err      error
	grace    *time.Timer

	wake     chan struct{}
	done     chan struct{}
	consumed atomic.Bool
}

// NewTurn creates an open turn. onFinish, if set, runs once after the turn
// finishes, on the goroutine that finished it.
func NewTurn(onFinish func(*Turn)) *Turn {
	return &Turn{
		id:       ulid.Make().String(),
		started:  time.Now(),
		onFinish: onFinish,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// ID identifies the turn in logs.
func (t *Turn) ID() string { return t.id }

// Started is when the turn was created.
func (t *Turn) Started() time.Time { return t.started }

// Push queues a chunk for the consumer. It reports false if the turn has
// already finished and the chunk was dropped.
func (t *Turn) Push(chunk string) bool {
	if chunk == "" {
		return true
	}

	t.mu.Lock()

	if t.finished {
		t.mu.Unlock()

		return false
	}

	t.queue = append(t.queue, chunk)
	t.text.WriteString(chunk)
	t.mu.Unlock()

	t.signal()

	return true
}

// Complete finishes the turn successfully. It reports whether this call
// finished the turn.
func (t *Turn) Complete() bool {
	return t.finish(nil)
}

// Fail finishes the turn with err. It reports whether this call finished
// the turn.
func (t *Turn) Fail(err error) bool {
	return t.finish(err)
}

// ArmGrace completes the turn after d unless it finishes first. Only the
// first call arms a timer.
func (t *Turn) ArmGrace(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished || t.grace != nil {
		return
	}

	t.grace = time.AfterFunc(d, func() { t.Complete() })
}

// Done is closed when the turn has finished.
func (t *Turn) Done() <-chan struct{} { return t.done }

// Err returns the error the turn failed with, or nil.
func (t *Turn) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.err
}

// Text returns all visible text pushed so far.
func (t *Turn) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.text.String()
}

func (t *Turn) finish(err error) bool {
	t.mu.Lock()

	if t.finished {
		t.mu.Unlock()

		return false
	}

	t.finished = true
	t.err = err

	if t.grace != nil {
		t.grace.Stop()
	}

	t.mu.Unlock()

	close(t.done)
	t.signal()

	if t.onFinish != nil {
		t.onFinish(t)
	}

	return true
}

func (t *Turn) signal() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// next returns the next queued chunk, or reports that the turn is over.
func (t *Turn) next() (chunk string, ok bool, over bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.queue) > 0 {
		chunk = t.queue[0]
		t.queue[0] = ""
		t.queue = t.queue[1:]

		return chunk, true, false, nil
	}

	if t.finished {
		return "", false, true, t.err
	}

	return "", false, false, nil
}

// Seq returns the turn's chunks in arrival order. The sequence ends after
// the last chunk of a completed turn, or yields the turn's error. Stopping
// early or cancelling ctx detaches the consumer without finishing the turn.
// A turn can be consumed once; later calls yield ErrStreamConsumed.
func (t *Turn) Seq(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !t.consumed.CompareAndSwap(false, true) {
			yield("", errors.ErrStreamConsumed)

			return
		}

		for {
			chunk, ok, over, err := t.next()

			switch {
			case ok:
				if !yield(chunk, nil) {
					return
				}

				continue
			case over:
				if err != nil {
					yield("", err)
				}

				return
			}

			select {
			case <-t.wake:
			case <-ctx.Done():
				yield("", ctx.Err())

				return
			}
		}
	}
}
