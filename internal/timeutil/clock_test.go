package timeutil

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestRealClock_NewTimer(t *testing.T) {
	clock := RealClock{}
	timer := clock.NewTimer(5 * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C():
	case <-time.After(200 * time.Millisecond):
		t.Error("timer did not fire")
	}
}

func TestRealClock_Since(t *testing.T) {
	d := RealClock{}.Since(time.Now().Add(-time.Second))
	if d < time.Second {
		t.Errorf("Since() = %v, want >= 1s", d)
	}
}

func TestMockClock_SleepAdvances(t *testing.T) {
	clock := NewMockClock(epoch)
	clock.Sleep(10 * time.Millisecond)
	clock.Sleep(10 * time.Millisecond)

	if got := clock.Since(epoch); got != 20*time.Millisecond {
		t.Errorf("Since() = %v, want 20ms", got)
	}
	sleeps := clock.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 10*time.Millisecond {
		t.Errorf("Sleeps() = %v", sleeps)
	}
}

func TestMockClock_TimerFiresOnDeadline(t *testing.T) {
	clock := NewMockClock(epoch)
	timer := clock.NewTimer(50 * time.Millisecond)

	if n := clock.PendingTimers(); n != 1 {
		t.Fatalf("PendingTimers() = %d, want 1", n)
	}

	clock.Advance(49 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}

	clock.Advance(time.Millisecond)
	select {
	case got := <-timer.C():
		if want := epoch.Add(50 * time.Millisecond); !got.Equal(want) {
			t.Errorf("fired at %v, want %v", got, want)
		}
	default:
		t.Fatal("timer did not fire at deadline")
	}

	if n := clock.PendingTimers(); n != 0 {
		t.Errorf("PendingTimers() = %d after firing, want 0", n)
	}
	if timer.Stop() {
		t.Error("Stop() on a fired timer should report false")
	}
}

func TestMockClock_StoppedTimerNeverFires(t *testing.T) {
	clock := NewMockClock(epoch)
	timer := clock.NewTimer(time.Second)
	if !timer.Stop() {
		t.Error("Stop() on an armed timer should report true")
	}
	clock.Advance(2 * time.Second)
	select {
	case <-timer.C():
		t.Error("stopped timer fired")
	default:
	}
}

func TestMockClock_After(t *testing.T) {
	clock := NewMockClock(epoch)
	ch := clock.After(time.Minute)
	clock.Set(epoch.Add(time.Hour))
	select {
	case <-ch:
		t.Fatal("Set must not fire timers")
	default:
	}
	clock.Advance(0)
	select {
	case <-ch:
	default:
		t.Error("After channel did not fire on Advance")
	}
}
