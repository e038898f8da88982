package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	acperrors "github.com/wagiedev/acp-client-go/internal/errors"
)

func collect(t *testing.T, turn *Turn, ctx context.Context) ([]string, error) {
	t.Helper()

	var chunks []string

	for chunk, err := range turn.Seq(ctx) {
		if err != nil {
			return chunks, err
		}

		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func TestTurn_PushThenComplete(t *testing.T) {
	turn := NewTurn(nil)

	require.True(t, turn.Push("He"))
	require.True(t, turn.Push("llo"))
	require.True(t, turn.Complete())

	chunks, err := collect(t, turn, context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"He", "llo"}, chunks)
	require.Equal(t, "Hello", turn.Text())
}

func TestTurn_ConcurrentProducer(t *testing.T) {
	turn := NewTurn(nil)

	go func() {
		for i := range 100 {
			turn.Push(strings.Repeat("x", i%3+1))
		}

		turn.Complete()
	}()

	chunks, err := collect(t, turn, context.Background())
	require.NoError(t, err)
	require.Len(t, chunks, 100)
}

func TestTurn_FailDeliversQueuedChunksFirst(t *testing.T) {
	turn := NewTurn(nil)
	boom := errors.New("boom")

	turn.Push("partial")
	turn.Fail(boom)

	chunks, err := collect(t, turn, context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"partial"}, chunks)
	require.ErrorIs(t, turn.Err(), boom)
}

func TestTurn_FinishesOnce(t *testing.T) {
	var finished atomic.Int32

	turn := NewTurn(func(*Turn) { finished.Add(1) })

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() { turn.Complete() })
		wg.Go(func() { turn.Fail(errors.New("late")) })
	}

	wg.Wait()

	require.EqualValues(t, 1, finished.Load())
	require.False(t, turn.Push("after"), "chunks after finish are dropped")

	select {
	case <-turn.Done():
	default:
		t.Fatal("done should be closed")
	}
}

func TestTurn_GraceCompletes(t *testing.T) {
	turn := NewTurn(nil)

	turn.Push("a")
	turn.ArmGrace(20 * time.Millisecond)

	// Trailing chunks inside the grace window are kept.
	turn.Push("b")

	chunks, err := collect(t, turn, context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, chunks)
	require.False(t, turn.Push("c"))
}

func TestTurn_ExplicitCompletionBeatsGrace(t *testing.T) {
	var finished atomic.Int32

	turn := NewTurn(func(*Turn) { finished.Add(1) })
	turn.ArmGrace(10 * time.Millisecond)
	require.True(t, turn.Complete())

	time.Sleep(30 * time.Millisecond)
	require.EqualValues(t, 1, finished.Load())
}

func TestTurn_ArmGraceAfterFinishIsNoop(t *testing.T) {
	turn := NewTurn(nil)
	turn.Fail(errors.New("dead"))
	turn.ArmGrace(time.Millisecond)

	time.Sleep(10 * time.Millisecond)
	require.EqualError(t, turn.Err(), "dead")
}

func TestTurn_SecondSeqIsConsumed(t *testing.T) {
	turn := NewTurn(nil)
	turn.Complete()

	_, err := collect(t, turn, context.Background())
	require.NoError(t, err)

	_, err = collect(t, turn, context.Background())
	require.ErrorIs(t, err, acperrors.ErrStreamConsumed)
}

func TestTurn_CancelDetachesOnly(t *testing.T) {
	turn := NewTurn(nil)
	turn.Push("first")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string

	for chunk, err := range turn.Seq(ctx) {
		if err != nil {
			require.ErrorIs(t, err, context.Canceled)

			break
		}

		got = append(got, chunk)
		cancel()
	}

	require.Equal(t, []string{"first"}, got)

	select {
	case <-turn.Done():
		t.Fatal("cancelling the consumer must not finish the turn")
	default:
	}

	require.True(t, turn.Push("still open"))
}

func TestTurn_EarlyBreakDetachesOnly(t *testing.T) {
	turn := NewTurn(nil)
	turn.Push("a")
	turn.Push("b")

	for range turn.Seq(context.Background()) {
		break
	}

	select {
	case <-turn.Done():
		t.Fatal("breaking out must not finish the turn")
	default:
	}
}

func TestTurn_IDsAreUnique(t *testing.T) {
	require.NotEqual(t, NewTurn(nil).ID(), NewTurn(nil).ID())
}
