package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 9 * time.Second})
	got := Current()
	if got.Short != 9*time.Second {
		t.Errorf("Short = %v, want 9s", got.Short)
	}
	if got.Ping != DefaultPing || got.Routine != DefaultRoutine {
		t.Errorf("unset values changed: %+v", got)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(Reset)
	t.Setenv("DISPATCHHUB_TIMEOUT_PING", "750ms")
	t.Setenv("DISPATCHHUB_TIMEOUT_SHORT", "bogus")
	t.Setenv("DISPATCHHUB_TIMEOUT_ROUTINE", "-5m")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("applied %d values, want 1", n)
	}
	if Ping() != 750*time.Millisecond {
		t.Errorf("Ping = %v, want 750ms", Ping())
	}
	if Short() != DefaultShort || Routine() != DefaultRoutine {
		t.Errorf("invalid values were applied: %+v", Current())
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, nil, "test")
	defer cancel()
	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", ctx.Err())
	}
}
