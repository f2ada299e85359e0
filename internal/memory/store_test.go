package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Cyclone1070/beachai/internal/testing/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 7, 4, 9, 0, 0, 0, time.UTC)

func userTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func TestAppend_FirstUseCreatesSession(t *testing.T) {
	s := NewStore(10, time.Hour)

	_, err := s.Lookup("beach-1")
	require.ErrorIs(t, err, ErrUnknownSession)

	stored, err := s.Append("beach-1", userTurn("tides at Santa Monica?"))

	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Seq)
	info, err := s.Lookup("beach-1")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Turns)
}

func TestAppend_SequenceStrictlyIncreasingGapFree(t *testing.T) {
	s := NewStore(100, time.Hour)

	for i := 0; i < 5; i++ {
		_, err := s.Append("s", userTurn(fmt.Sprint(i)))
		require.NoError(t, err)
	}

	history := s.History("s", 0)
	require.Len(t, history, 5)
	for i, turn := range history {
		assert.Equal(t, int64(i+1), turn.Seq)
	}
}

func TestAppend_RejectsBadInput(t *testing.T) {
	s := NewStore(10, time.Hour)

	_, err := s.Append("", userTurn("hi"))
	assert.ErrorIs(t, err, ErrEmptySessionID)

	_, err = s.Append("s", Turn{Role: "system", Content: "x"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = s.Append("s", Turn{Role: RoleTool, Content: "{}"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestAppend_DropsOldestBeyondMaxTurns(t *testing.T) {
	s := NewStore(3, time.Hour)

	for i := 1; i <= 5; i++ {
		_, err := s.Append("s", userTurn(fmt.Sprint(i)))
		require.NoError(t, err)
	}

	history := s.History("s", 0)
	require.Len(t, history, 3)
	assert.Equal(t, "3", history[0].Content)
	assert.Equal(t, int64(3), history[0].Seq)
	assert.Equal(t, int64(5), history[2].Seq)
}

func TestHistory_LimitsToMostRecent(t *testing.T) {
	s := NewStore(10, time.Hour)
	for i := 1; i <= 6; i++ {
		_, _ = s.Append("s", userTurn(fmt.Sprint(i)))
	}

	history := s.History("s", 2)

	require.Len(t, history, 2)
	assert.Equal(t, "5", history[0].Content)
	assert.Equal(t, "6", history[1].Content)
}

func TestHistory_SkipsOrphanedToolTurns(t *testing.T) {
	s := NewStore(10, time.Hour)
	_, err := s.AppendAll("s",
		userTurn("weather?"),
		Turn{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "get_weather"}}},
		Turn{Role: RoleTool, ToolCallID: "c1", ToolName: "get_weather", Content: `{"success":true}`},
		Turn{Role: RoleAssistant, Content: "Sunny."},
	)
	require.NoError(t, err)

	history := s.History("s", 2)

	require.Len(t, history, 1)
	assert.Equal(t, "Sunny.", history[0].Content)
}

func TestHistory_ReturnsCopies(t *testing.T) {
	s := NewStore(10, time.Hour)
	_, _ = s.Append("s", Turn{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "get_weather"}}})

	history := s.History("s", 0)
	history[0].Content = "mutated"
	history[0].ToolCalls[0].Name = "mutated"

	again := s.History("s", 0)
	assert.Equal(t, "", again[0].Content)
	assert.Equal(t, "get_weather", again[0].ToolCalls[0].Name)
}

func TestAppendAll_ContiguousUnderConcurrency(t *testing.T) {
	s := NewStore(1000, time.Hour)

	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			batch := make([]Turn, 5)
			for i := range batch {
				batch[i] = userTurn(fmt.Sprintf("%d", g))
			}
			_, err := s.AppendAll("shared", batch...)
			assert.NoError(t, err)
		}(g)
	}
	wg.Wait()

	history := s.History("shared", 0)
	require.Len(t, history, 100)
	for i, turn := range history {
		assert.Equal(t, int64(i+1), turn.Seq)
		// Each batch of five stays together.
		assert.Equal(t, history[i-i%5].Content, turn.Content)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	s := NewStore(10, time.Hour)

	_, _ = s.Append("a", userTurn("a1"))
	_, _ = s.Append("b", userTurn("b1"))
	_, _ = s.Append("a", userTurn("a2"))

	assert.Len(t, s.History("a", 0), 2)
	b := s.History("b", 0)
	require.Len(t, b, 1)
	assert.Equal(t, int64(1), b[0].Seq)
}

func TestClear_KeepsSequenceMonotonic(t *testing.T) {
	s := NewStore(10, time.Hour)
	_, _ = s.Append("s", userTurn("one"))
	_, _ = s.Append("s", userTurn("two"))

	require.NoError(t, s.Clear("s"))
	assert.Empty(t, s.History("s", 0))

	stored, err := s.Append("s", userTurn("three"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.Seq)

	assert.ErrorIs(t, s.Clear("missing"), ErrUnknownSession)
}

func TestIdleSessionExpires(t *testing.T) {
	clk := mock.NewClock(epoch)
	s := NewStore(10, 30*time.Minute, WithClock(clk))
	_, _ = s.Append("s", userTurn("hello"))

	clk.Advance(31 * time.Minute)

	_, err := s.Lookup("s")
	var unknown *UnknownSessionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "s", unknown.ID)

	stored, err := s.Append("s", userTurn("back again"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Seq)
}

func TestActivityKeepsSessionAlive(t *testing.T) {
	clk := mock.NewClock(epoch)
	s := NewStore(10, 30*time.Minute, WithClock(clk))
	_, _ = s.Append("s", userTurn("hello"))

	clk.Advance(20 * time.Minute)
	_ = s.History("s", 0)
	clk.Advance(20 * time.Minute)

	info, err := s.Lookup("s")
	require.NoError(t, err)
	assert.Equal(t, epoch, info.Created)
	assert.Equal(t, epoch.Add(20*time.Minute), info.LastActive)
}

func TestSweep_RemovesOnlyIdleSessions(t *testing.T) {
	clk := mock.NewClock(epoch)
	s := NewStore(10, 30*time.Minute, WithClock(clk))
	_, _ = s.Append("old", userTurn("x"))
	clk.Advance(20 * time.Minute)
	_, _ = s.Append("new", userTurn("y"))
	clk.Advance(15 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
	_, err := s.Lookup("new")
	assert.NoError(t, err)
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	clk := mock.NewClock(epoch)
	s := NewStore(10, time.Minute, WithClock(clk))
	_, _ = s.Append("s", userTurn("x"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunSweeper(ctx, 5*time.Minute)
		close(done)
	}()

	require.Eventually(t, func() bool { return clk.Waiters() == 1 }, time.Second, time.Millisecond)
	clk.Advance(5 * time.Minute)
	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestNewSessionID_Unique(t *testing.T) {
	assert.NotEqual(t, NewSessionID(), NewSessionID())
}
