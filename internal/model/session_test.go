package model

import (
	"errors"
	"testing"
	"time"

	"tempo/internal/clierr"
)

var t0 = time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

func startedSession() *TimeSession {
	return &TimeSession{ID: 1, TaskID: 1, StartedAt: t0}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var ce *clierr.Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *clierr.Error, got %T: %v", err, err)
	}
	if ce.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, ce.Code, err)
	}
}

// ---------------------------------------------------------------------------
// State derivation
// ---------------------------------------------------------------------------

func TestStateDerivation(t *testing.T) {
	s := startedSession()
	if s.State() != SessionActive {
		t.Fatalf("fresh session: want active, got %s", s.State())
	}

	paused := t0.Add(time.Minute)
	s.PausedAt = &paused
	if s.State() != SessionPaused {
		t.Fatalf("paused session: want paused, got %s", s.State())
	}

	resumed := t0.Add(2 * time.Minute)
	s.ResumedAt = &resumed
	if s.State() != SessionActive {
		t.Fatalf("resumed session: want active, got %s", s.State())
	}

	stopped := t0.Add(3 * time.Minute)
	s.StoppedAt = &stopped
	if s.State() != SessionStopped {
		t.Fatalf("stopped session: want stopped, got %s", s.State())
	}
}

// ---------------------------------------------------------------------------
// Transition guards
// ---------------------------------------------------------------------------

func TestPauseOnlyFromActive(t *testing.T) {
	s := startedSession()
	if err := s.Pause(t0.Add(time.Minute)); err != nil {
		t.Fatalf("pause from active: %v", err)
	}
	// Pausing again while paused is an illegal transition.
	assertCode(t, s.Pause(t0.Add(2*time.Minute)), clierr.InvalidState)
}

func TestPauseAfterResumeRejected(t *testing.T) {
	s := startedSession()
	if err := s.Pause(t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := s.Resume(t0.Add(2 * time.Minute)); err != nil {
		t.Fatal(err)
	}
	// The model supports a single pause/resume pair per session.
	assertCode(t, s.Pause(t0.Add(3*time.Minute)), clierr.InvalidState)
}

func TestPauseStoppedSession(t *testing.T) {
	s := startedSession()
	if err := s.Stop(t0.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	assertCode(t, s.Pause(t0.Add(2*time.Hour)), clierr.InvalidState)
}

func TestResumeOnlyFromPaused(t *testing.T) {
	s := startedSession()
	assertCode(t, s.Resume(t0.Add(time.Minute)), clierr.InvalidState)
}

func TestResumeStoppedSession(t *testing.T) {
	s := startedSession()
	if err := s.Pause(t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(t0.Add(2 * time.Minute)); err != nil {
		t.Fatal(err)
	}
	assertCode(t, s.Resume(t0.Add(3*time.Minute)), clierr.InvalidState)
}

func TestStopTwice(t *testing.T) {
	s := startedSession()
	if err := s.Stop(t0.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	want := s.DurationSeconds

	assertCode(t, s.Stop(t0.Add(2*time.Hour)), clierr.AlreadyStopped)
	if s.DurationSeconds != want {
		t.Fatalf("duration changed by failed stop: want %d, got %d", want, s.DurationSeconds)
	}
}

// ---------------------------------------------------------------------------
// Timestamp ordering
// ---------------------------------------------------------------------------

func TestPauseBeforeStartRejected(t *testing.T) {
	s := startedSession()
	assertCode(t, s.Pause(t0.Add(-time.Minute)), clierr.InvalidTimestampOrder)
	if s.PausedAt != nil {
		t.Fatal("failed pause must leave the session unchanged")
	}
}

func TestPauseAtStartRejected(t *testing.T) {
	s := startedSession()
	assertCode(t, s.Pause(t0), clierr.InvalidTimestampOrder)
}

func TestResumeBeforePauseRejected(t *testing.T) {
	s := startedSession()
	if err := s.Pause(t0.Add(2 * time.Minute)); err != nil {
		t.Fatal(err)
	}
	assertCode(t, s.Resume(t0.Add(time.Minute)), clierr.InvalidTimestampOrder)
	if s.ResumedAt != nil {
		t.Fatal("failed resume must leave the session unchanged")
	}
}

func TestStopBeforeLatestTimestampRejected(t *testing.T) {
	s := startedSession()
	if err := s.Pause(t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := s.Resume(t0.Add(2 * time.Minute)); err != nil {
		t.Fatal(err)
	}
	assertCode(t, s.Stop(t0.Add(90*time.Second)), clierr.InvalidTimestampOrder)
	if s.StoppedAt != nil {
		t.Fatal("failed stop must leave the session unchanged")
	}
}

// ---------------------------------------------------------------------------
// Duration calculation
// ---------------------------------------------------------------------------

func TestDurationFullCycle(t *testing.T) {
	s := startedSession()
	if err := s.Pause(t0.Add(60 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if err := s.Resume(t0.Add(120 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(t0.Add(180 * time.Second)); err != nil {
		t.Fatal(err)
	}
	// [0s,60s] active + [120s,180s] active = 120s; the pause gap is excluded.
	if s.DurationSeconds != 120 {
		t.Fatalf("full cycle duration: want 120, got %d", s.DurationSeconds)
	}
}

func TestDurationNeverPaused(t *testing.T) {
	s := startedSession()
	if err := s.Stop(t0.Add(3600 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if s.DurationSeconds != 3600 {
		t.Fatalf("unpaused duration: want 3600, got %d", s.DurationSeconds)
	}
}

func TestDurationStoppedWhilePaused(t *testing.T) {
	s := startedSession()
	if err := s.Pause(t0.Add(45 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(t0.Add(10 * time.Minute)); err != nil {
		t.Fatal(err)
	}
	// Only the interval before the pause counts.
	if s.DurationSeconds != 45 {
		t.Fatalf("stopped-while-paused duration: want 45, got %d", s.DurationSeconds)
	}
}

func TestDurationFrozenWhilePaused(t *testing.T) {
	s := startedSession()
	if err := s.Pause(t0.Add(30 * time.Second)); err != nil {
		t.Fatal(err)
	}

	d, err := s.DurationAt(t0.Add(2 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if d != 30 {
		t.Fatalf("paused live duration: want 30, got %d", d)
	}
}

func TestLiveDurationWhileActive(t *testing.T) {
	s := startedSession()
	d, err := s.DurationAt(t0.Add(90 * time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if d != 90 {
		t.Fatalf("active live duration: want 90, got %d", d)
	}
}

func TestLiveDurationAfterResume(t *testing.T) {
	s := startedSession()
	if err := s.Pause(t0.Add(60 * time.Second)); err != nil {
		t.Fatal(err)
	}
	if err := s.Resume(t0.Add(120 * time.Second)); err != nil {
		t.Fatal(err)
	}

	d, err := s.DurationAt(t0.Add(150 * time.Second))
	if err != nil {
		t.Fatal(err)
	}
	// 60s before the pause + 30s since the resume.
	if d != 90 {
		t.Fatalf("resumed live duration: want 90, got %d", d)
	}
}

func TestDurationFloorsSubsecondRemainder(t *testing.T) {
	s := startedSession()
	if err := s.Stop(t0.Add(90*time.Second + 900*time.Millisecond)); err != nil {
		t.Fatal(err)
	}
	if s.DurationSeconds != 90 {
		t.Fatalf("fractional seconds must floor: want 90, got %d", s.DurationSeconds)
	}
}

func TestDurationNonNegativeAfterTransitions(t *testing.T) {
	s := startedSession()
	steps := []func() error{
		func() error { return s.Pause(t0.Add(time.Second)) },
		func() error { return s.Resume(t0.Add(2 * time.Second)) },
		func() error { return s.Stop(t0.Add(3 * time.Second)) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if s.DurationSeconds < 0 {
			t.Fatalf("step %d: negative duration %d", i, s.DurationSeconds)
		}
	}
}

func TestCorruptedTimestampsReportNegativeDuration(t *testing.T) {
	// A row written by a buggy client: paused before started.
	paused := t0.Add(-time.Hour)
	s := &TimeSession{ID: 7, TaskID: 1, StartedAt: t0, PausedAt: &paused}

	_, err := s.DurationAt(t0.Add(time.Hour))
	assertCode(t, err, clierr.InvalidTimestampOrder)
}
