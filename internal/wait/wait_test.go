package wait

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestForSucceedsOnLaterAttempt(t *testing.T) {
	calls := 0
	err := For(context.Background(), "populated", func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	}, time.Millisecond, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls=%d; want 3", calls)
	}
}

func TestForTimesOut(t *testing.T) {
	calls := 0
	err := For(context.Background(), "Utils_IsSelectElemPopulated", func(context.Context) (bool, error) {
		calls++
		return false, nil
	}, time.Millisecond, 4)
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("err=%v; want *TimeoutError", err)
	}
	if calls != 4 || te.Attempts != 4 {
		t.Fatalf("calls=%d attempts=%d; want 4", calls, te.Attempts)
	}
	want := "Condition <Utils_IsSelectElemPopulated> never returned true over 4 checks, spaced by 1ms."
	if te.Error() != want {
		t.Fatalf("message=%q", te.Error())
	}
}

func TestForStopsOnConditionError(t *testing.T) {
	boom := errors.New("page gone")
	calls := 0
	err := For(context.Background(), "x", func(context.Context) (bool, error) {
		calls++
		return false, boom
	}, time.Millisecond, 5)
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestDelayHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Delay(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v; want context.Canceled", err)
	}
}
