package inflight

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errExpired = errors.New("call timed out")

func TestSettleResolvesWait(t *testing.T) {
	table := NewTable()
	call := table.Track("a1", time.Minute, errExpired)

	go func() {
		table.Settle("a1", json.RawMessage(`{"clean":true}`), nil)
	}()

	result, err := call.Wait(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, `{"clean":true}`, string(result))
	require.Zero(t, table.Len())
}

func TestSettleWithError(t *testing.T) {
	table := NewTable()
	call := table.Track("a1", time.Minute, errExpired)

	remote := errors.New("remote said no")
	require.True(t, table.Settle("a1", nil, remote))

	_, err := call.Wait(context.Background())
	require.ErrorIs(t, err, remote)
}

func TestSettleUnknownIDIsNoop(t *testing.T) {
	table := NewTable()
	require.False(t, table.Settle("ghost", nil, nil))
}

func TestTimeoutFiresExpireError(t *testing.T) {
	table := NewTable()
	call := table.Track("a1", 10*time.Millisecond, errExpired)

	_, err := call.Wait(context.Background())
	require.ErrorIs(t, err, errExpired)
	require.Zero(t, table.Len())
}

func TestLateSettleAfterTimeoutIsNoop(t *testing.T) {
	table := NewTable()
	call := table.Track("a1", 10*time.Millisecond, errExpired)

	_, err := call.Wait(context.Background())
	require.ErrorIs(t, err, errExpired)

	// The entry was claimed by the timer; a late response must be a no-op.
	require.False(t, table.Settle("a1", json.RawMessage(`1`), nil))
}

func TestSettleBeforeTimeoutWins(t *testing.T) {
	table := NewTable()
	call := table.Track("a1", 30*time.Millisecond, errExpired)

	require.True(t, table.Settle("a1", json.RawMessage(`"fast"`), nil))

	result, err := call.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, `"fast"`, string(result))

	// Give the (stopped) timer a chance to misfire.
	time.Sleep(60 * time.Millisecond)
	require.Zero(t, table.Len())
}

func TestConcurrentSettleExactlyOnce(t *testing.T) {
	table := NewTable()
	call := table.Track("a1", time.Minute, errExpired)

	const racers = 16
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if table.Settle("a1", json.RawMessage(`1`), nil) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, wins)

	_, err := call.Wait(context.Background())
	require.NoError(t, err)
}

func TestFailAll(t *testing.T) {
	table := NewTable()
	calls := []*Call{
		table.Track("a", time.Minute, errExpired),
		table.Track("b", time.Minute, errExpired),
		table.Track("c", time.Minute, errExpired),
	}

	crash := errors.New("process exited")
	require.Equal(t, 3, table.FailAll(crash))
	require.Zero(t, table.Len())

	for _, c := range calls {
		_, err := c.Wait(context.Background())
		require.ErrorIs(t, err, crash)
	}

	// Everything was already claimed.
	require.Zero(t, table.FailAll(crash))
}

func TestWaitContextCancellation(t *testing.T) {
	table := NewTable()
	call := table.Track("a1", time.Minute, errExpired)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := call.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The entry is still tracked; the table was not corrupted.
	require.Equal(t, 1, table.Len())
	require.True(t, table.Settle("a1", nil, nil))
}

func TestZeroTimeoutNeverExpires(t *testing.T) {
	table := NewTable()
	table.Track("a1", 0, errExpired)

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, table.Len())
}
