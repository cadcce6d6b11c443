package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"tempo/internal/model"
)

func TestStartExclusive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sessions := NewSessionRepository(db)
	task := seedTask(t, db, "api", "first")

	now := time.Now().UTC()
	first := &model.TimeSession{TaskID: task.ID, StartedAt: now}
	conflict, err := sessions.StartExclusive(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	if conflict != nil {
		t.Fatalf("want no conflict on empty db, got session %d", conflict.ID)
	}
	if first.ID == 0 {
		t.Fatal("session was not persisted")
	}

	second := &model.TimeSession{TaskID: task.ID, StartedAt: now.Add(time.Minute)}
	conflict, err = sessions.StartExclusive(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if conflict == nil || conflict.ID != first.ID {
		t.Fatalf("want conflict with session %d, got %+v", first.ID, conflict)
	}

	var count int64
	if err := db.Model(&model.TimeSession{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("conflicting start must not insert: want 1 row, got %d", count)
	}
}

func TestStartExclusiveAfterStop(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sessions := NewSessionRepository(db)
	task := seedTask(t, db, "api", "first")

	now := time.Now().UTC()
	first := &model.TimeSession{TaskID: task.ID, StartedAt: now}
	if _, err := sessions.StartExclusive(ctx, first); err != nil {
		t.Fatal(err)
	}

	ok, err := sessions.UpdateOpen(ctx, first.ID, map[string]any{
		"stopped_at":       now.Add(time.Hour),
		"duration_seconds": 3600,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected open session to accept the update")
	}

	next := &model.TimeSession{TaskID: task.ID, StartedAt: now.Add(2 * time.Hour)}
	conflict, err := sessions.StartExclusive(ctx, next)
	if err != nil {
		t.Fatal(err)
	}
	if conflict != nil {
		t.Fatalf("stopped session must not block a new start, got conflict %d", conflict.ID)
	}
}

func TestUpdateOpenGuardsStoppedRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sessions := NewSessionRepository(db)
	task := seedTask(t, db, "api", "first")

	now := time.Now().UTC()
	stopped := now.Add(time.Hour)
	session := model.TimeSession{TaskID: task.ID, StartedAt: now, StoppedAt: &stopped, DurationSeconds: 3600}
	if err := db.Create(&session).Error; err != nil {
		t.Fatal(err)
	}

	ok, err := sessions.UpdateOpen(ctx, session.ID, map[string]any{"paused_at": now.Add(2 * time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("stopped session must reject further updates")
	}

	got, err := sessions.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PausedAt != nil {
		t.Fatal("guarded update must not touch the row")
	}
}

func TestGetOpenAndPaused(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sessions := NewSessionRepository(db)
	task := seedTask(t, db, "api", "first")

	if _, err := sessions.GetOpen(ctx); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("want record not found on empty db, got %v", err)
	}

	now := time.Now().UTC()
	session := &model.TimeSession{TaskID: task.ID, StartedAt: now}
	if _, err := sessions.StartExclusive(ctx, session); err != nil {
		t.Fatal(err)
	}

	open, err := sessions.GetOpen(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if open.ID != session.ID {
		t.Fatalf("want open session %d, got %d", session.ID, open.ID)
	}

	paused, err := sessions.GetPaused(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(paused) != 0 {
		t.Fatalf("active session must not be listed as paused, got %d", len(paused))
	}

	ok, err := sessions.UpdateOpen(ctx, session.ID, map[string]any{
		"paused_at":        now.Add(30 * time.Minute),
		"duration_seconds": 1800,
	})
	if err != nil || !ok {
		t.Fatalf("pause update: ok=%v err=%v", ok, err)
	}

	paused, err = sessions.GetPaused(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(paused) != 1 || paused[0].ID != session.ID {
		t.Fatalf("want one paused session, got %v", paused)
	}
}

func TestGetOpenForTask(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sessions := NewSessionRepository(db)
	tracked := seedTask(t, db, "api", "tracked")
	idle := seedTask(t, db, "api", "idle")

	now := time.Now().UTC()
	session := &model.TimeSession{TaskID: tracked.ID, StartedAt: now}
	if _, err := sessions.StartExclusive(ctx, session); err != nil {
		t.Fatal(err)
	}

	open, err := sessions.GetOpenForTask(ctx, tracked.ID)
	if err != nil {
		t.Fatal(err)
	}
	if open.ID != session.ID {
		t.Fatalf("want open session %d, got %d", session.ID, open.ID)
	}

	// The open session belongs to the other task.
	if _, err := sessions.GetOpenForTask(ctx, idle.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("want record not found for untracked task, got %v", err)
	}

	ok, err := sessions.UpdateOpen(ctx, session.ID, map[string]any{
		"stopped_at":       now.Add(time.Hour),
		"duration_seconds": 3600,
	})
	if err != nil || !ok {
		t.Fatalf("stop update: ok=%v err=%v", ok, err)
	}
	if _, err := sessions.GetOpenForTask(ctx, tracked.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("want record not found after stop, got %v", err)
	}
}

func TestSessionListWindow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sessions := NewSessionRepository(db)
	task := seedTask(t, db, "api", "first")
	other := seedTask(t, db, "api", "second")

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, taskID := range []uint{task.ID, task.ID, other.ID} {
		started := base.Add(time.Duration(i) * time.Hour)
		stopped := started.Add(30 * time.Minute)
		s := model.TimeSession{TaskID: taskID, StartedAt: started, StoppedAt: &stopped, DurationSeconds: 1800}
		if err := db.Create(&s).Error; err != nil {
			t.Fatal(err)
		}
	}

	from := base.Add(30 * time.Minute)
	to := base.Add(2 * time.Hour) // excludes the session started exactly here
	got, err := sessions.List(ctx, SessionFilter{From: &from, To: &to})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].StartedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("want only the middle session, got %v", got)
	}

	mine, err := sessions.List(ctx, SessionFilter{TaskIDs: []uint{task.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Fatalf("want 2 sessions for task %d, got %d", task.ID, len(mine))
	}
	if !mine[0].StartedAt.After(mine[1].StartedAt) {
		t.Fatal("sessions must be ordered newest first")
	}

	limited, err := sessions.List(ctx, SessionFilter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("want 1 session with limit, got %d", len(limited))
	}
}
