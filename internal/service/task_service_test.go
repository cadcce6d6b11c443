package service

import (
	"context"
	"reflect"
	"strconv"
	"testing"

	"tempo/internal/clierr"
	"tempo/internal/model"
)

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.tasks.CreateTask(ctx, TaskInput{Project: "api", Title: "   "})
	wantCode(t, err, clierr.InvalidInput)

	_, err = env.tasks.CreateTask(ctx, TaskInput{Title: "no project"})
	wantCode(t, err, clierr.InvalidInput)

	bad := -1.0
	_, err = env.tasks.CreateTask(ctx, TaskInput{Project: "api", Title: "ok", SizeEstimate: &bad})
	wantCode(t, err, clierr.InvalidInput)
	_, err = env.tasks.CreateTask(ctx, TaskInput{Project: "api", Title: "ok", TimeEstimateHours: &bad})
	wantCode(t, err, clierr.InvalidInput)
}

func TestCreateTaskDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task, err := env.tasks.CreateTask(ctx, TaskInput{
		Project: "api",
		Title:   "  write docs  ",
		Tags:    []string{"docs", "docs", "", "api"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if task.Title != "write docs" {
		t.Fatalf("title must be trimmed, got %q", task.Title)
	}
	if task.State != model.TaskPending {
		t.Fatalf("new tasks start pending, got %s", task.State)
	}
	if task.Number != 1 {
		t.Fatalf("first task in project gets number 1, got %d", task.Number)
	}
	if !reflect.DeepEqual(task.Tags, model.TagSet{"api", "docs"}) {
		t.Fatalf("tags must be deduped and sorted, got %v", task.Tags)
	}

	// The project is created on first use.
	if _, err := env.projects.GetProject(ctx, "api"); err != nil {
		t.Fatalf("project should exist after task creation: %v", err)
	}
}

func TestGetTaskByReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createTask(t, "api", "first", nil)

	byID, err := env.tasks.GetTaskByReference(ctx, strconv.Itoa(int(task.ID)))
	if err != nil {
		t.Fatal(err)
	}
	if byID.ID != task.ID {
		t.Fatalf("want task %d by id, got %d", task.ID, byID.ID)
	}

	byNumber, err := env.tasks.GetTaskByReference(ctx, "api/1")
	if err != nil {
		t.Fatal(err)
	}
	if byNumber.ID != task.ID {
		t.Fatalf("want task %d by number, got %d", task.ID, byNumber.ID)
	}

	_, err = env.tasks.GetTaskByReference(ctx, "api/nope")
	wantCode(t, err, clierr.InvalidInput)
	_, err = env.tasks.GetTaskByReference(ctx, "banana")
	wantCode(t, err, clierr.InvalidInput)
	_, err = env.tasks.GetTaskByReference(ctx, "ghost/1")
	wantCode(t, err, clierr.ProjectNotFound)
	_, err = env.tasks.GetTaskByReference(ctx, "api/99")
	wantCode(t, err, clierr.TaskNotFound)
}

func TestListTasksByTag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tagged, err := env.tasks.CreateTask(ctx, TaskInput{Project: "api", Title: "tagged", Tags: []string{"backend"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.tasks.CreateTask(ctx, TaskInput{Project: "api", Title: "plain"}); err != nil {
		t.Fatal(err)
	}

	got, err := env.tasks.ListTasks(ctx, TaskQuery{Tag: "backend"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != tagged.ID {
		t.Fatalf("want only the tagged task, got %v", got)
	}

	// Tag matching is case-sensitive.
	got, err = env.tasks.ListTasks(ctx, TaskQuery{Tag: "Backend"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("want no match for different case, got %v", got)
	}
}

func TestUpdateTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createTask(t, "api", "first", nil)

	title := "renamed"
	state := model.TaskBlocked
	estimate := 3.5
	updated, err := env.tasks.UpdateTask(ctx, task.ID, TaskUpdate{
		Title:             &title,
		State:             &state,
		TimeEstimateHours: &estimate,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "renamed" || updated.State != model.TaskBlocked {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.TimeEstimateHours == nil || *updated.TimeEstimateHours != 3.5 {
		t.Fatalf("estimate not applied: %+v", updated.TimeEstimateHours)
	}

	bad := model.TaskState("done")
	_, err = env.tasks.UpdateTask(ctx, task.ID, TaskUpdate{State: &bad})
	wantCode(t, err, clierr.InvalidInput)

	empty := " "
	_, err = env.tasks.UpdateTask(ctx, task.ID, TaskUpdate{Title: &empty})
	wantCode(t, err, clierr.InvalidInput)

	_, err = env.tasks.UpdateTask(ctx, 99, TaskUpdate{Title: &title})
	wantCode(t, err, clierr.TaskNotFound)
}

func TestCompleteTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createTask(t, "api", "first", nil)

	done, err := env.tasks.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.State != model.TaskCompleted {
		t.Fatalf("want completed, got %s", done.State)
	}
}

func TestDeleteTaskCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createTask(t, "api", "doomed", nil)
	session := env.addStoppedSession(t, task.ID, reportT0, 600)

	if err := env.tasks.DeleteTask(ctx, task.ID); err != nil {
		t.Fatal(err)
	}

	_, err := env.tasks.GetTask(ctx, task.ID)
	wantCode(t, err, clierr.TaskNotFound)

	if _, err := env.sessions.GetByID(ctx, session.ID); err == nil {
		t.Fatal("sessions must be deleted with their task")
	}

	err = env.tasks.DeleteTask(ctx, task.ID)
	wantCode(t, err, clierr.TaskNotFound)
}

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	project, err := env.projects.CreateProject(ctx, "api", "backend service")
	if err != nil {
		t.Fatal(err)
	}
	if project.ID == 0 {
		t.Fatal("project was not persisted")
	}

	_, err = env.projects.CreateProject(ctx, "api", "")
	wantCode(t, err, clierr.InvalidInput)
	_, err = env.projects.CreateProject(ctx, "", "")
	wantCode(t, err, clierr.InvalidInput)
	_, err = env.projects.CreateProject(ctx, "a/b", "")
	wantCode(t, err, clierr.InvalidInput)

	projects, err := env.projects.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 {
		t.Fatalf("want 1 project, got %d", len(projects))
	}
}
