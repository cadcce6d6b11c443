package model

import (
	"time"

	"tempo/internal/clierr"
)

// SessionState is the derived lifecycle state of a time session. It is
// never stored; it is computed from which timestamps are set.
type SessionState string

const (
	SessionActive  SessionState = "active"
	SessionPaused  SessionState = "paused"
	SessionStopped SessionState = "stopped"
)

// TimeSession is one bounded interval of tracked work on a task, from
// start to stop, with room for exactly one pause/resume gap. A session
// is created by starting tracking and becomes immutable once stopped.
//
// Timestamps must be strictly increasing in the order
// started < paused < resumed < stopped for those that are set.
// DurationSeconds holds the seconds of active time accumulated so far
// and is recomputed on every transition.
type TimeSession struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	TaskID          uint       `gorm:"not null;index" json:"taskId"`
	StartedAt       time.Time  `gorm:"not null" json:"startedAt"`
	PausedAt        *time.Time `json:"pausedAt,omitempty"`
	ResumedAt       *time.Time `json:"resumedAt,omitempty"`
	StoppedAt       *time.Time `json:"stoppedAt,omitempty"`
	DurationSeconds int64      `gorm:"not null;default:0" json:"durationSeconds"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// State derives the session state from its timestamps: stopped if
// StoppedAt is set; else paused if PausedAt is set without a ResumedAt;
// else active.
func (s *TimeSession) State() SessionState {
	switch {
	case s.StoppedAt != nil:
		return SessionStopped
	case s.PausedAt != nil && s.ResumedAt == nil:
		return SessionPaused
	default:
		return SessionActive
	}
}

// Pause records a pause at t. Legal only while the session is active and
// has not yet used its single pause/resume pair; the duration formula
// cannot represent a second pause interval, so a re-pause after a resume
// is rejected until the session is stopped and a new one started.
func (s *TimeSession) Pause(t time.Time) error {
	if s.State() != SessionActive {
		return clierr.Newf(clierr.InvalidState, "cannot pause a %s session", s.State())
	}
	if s.PausedAt != nil {
		return clierr.New(clierr.InvalidState,
			"session was already paused once; stop it and start a new session instead")
	}
	if !t.After(s.StartedAt) {
		return clierr.Newf(clierr.InvalidTimestampOrder,
			"pause time %s is not after start time %s",
			t.Format(time.RFC3339), s.StartedAt.Format(time.RFC3339))
	}
	d, err := s.DurationAt(t)
	if err != nil {
		return err
	}
	s.PausedAt = &t
	s.DurationSeconds = d
	return nil
}

// Resume records a resume at t. Legal only while the session is paused.
func (s *TimeSession) Resume(t time.Time) error {
	if s.State() != SessionPaused {
		return clierr.Newf(clierr.InvalidState, "cannot resume a %s session", s.State())
	}
	if !t.After(*s.PausedAt) {
		return clierr.Newf(clierr.InvalidTimestampOrder,
			"resume time %s is not after pause time %s",
			t.Format(time.RFC3339), s.PausedAt.Format(time.RFC3339))
	}
	d, err := s.DurationAt(t)
	if err != nil {
		return err
	}
	s.ResumedAt = &t
	s.DurationSeconds = d
	return nil
}

// Stop records a stop at t and freezes the final duration. Legal from
// active or paused; stopping a stopped session fails with AlreadyStopped
// and leaves the duration untouched.
func (s *TimeSession) Stop(t time.Time) error {
	if s.StoppedAt != nil {
		return clierr.New(clierr.AlreadyStopped, "session is already stopped")
	}
	if latest := s.latestTimestamp(); !t.After(latest) {
		return clierr.Newf(clierr.InvalidTimestampOrder,
			"stop time %s is not after the session's latest timestamp %s",
			t.Format(time.RFC3339), latest.Format(time.RFC3339))
	}
	d, err := s.DurationAt(t)
	if err != nil {
		return err
	}
	s.StoppedAt = &t
	s.DurationSeconds = d
	return nil
}

// DurationAt returns the whole seconds of active time accumulated as of
// now: closed intervals plus, for a running session, the open interval
// ending at now. Paused and stopped sessions do not accumulate. Whole
// seconds are the floor of the millisecond total. A negative total
// signals corrupted timestamps and is reported as an error rather than
// clamped.
func (s *TimeSession) DurationAt(now time.Time) (int64, error) {
	end := now
	if s.StoppedAt != nil {
		end = *s.StoppedAt
	}

	var total time.Duration
	switch {
	case s.PausedAt == nil:
		total = end.Sub(s.StartedAt)
	case s.ResumedAt == nil:
		// Paused (or stopped while paused): only the first interval counts.
		total = s.PausedAt.Sub(s.StartedAt)
	default:
		total = s.PausedAt.Sub(s.StartedAt) + end.Sub(*s.ResumedAt)
	}

	if total < 0 {
		return 0, clierr.Newf(clierr.InvalidTimestampOrder,
			"session %d has a negative active duration; timestamps are out of order", s.ID)
	}
	return total.Milliseconds() / 1000, nil
}

// latestTimestamp returns the most recent of the set timestamps.
func (s *TimeSession) latestTimestamp() time.Time {
	latest := s.StartedAt
	for _, ts := range []*time.Time{s.PausedAt, s.ResumedAt, s.StoppedAt} {
		if ts != nil && ts.After(latest) {
			latest = *ts
		}
	}
	return latest
}
