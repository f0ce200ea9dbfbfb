package scheduler

import (
	"context"
	"testing"

	"github.com/plexsweep/plexsweep/internal/testutil"
)

func noop(ctx context.Context) error { return nil }

func TestRegisterAndListTasks(t *testing.T) {
	s, err := New(testutil.NopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Stop()

	err = s.RegisterTask(TaskConfig{
		ID:   "t1",
		Name: "Task One",
		Cron: "0 3 * * *",
		Func: noop,
	})
	if err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}

	if err := s.RegisterTask(TaskConfig{ID: "t1", Cron: "0 4 * * *", Func: noop}); err == nil {
		t.Error("duplicate RegisterTask() accepted")
	}

	tasks := s.ListTasks()
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Errorf("ListTasks() = %+v", tasks)
	}

	info, err := s.GetTask("t1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if info.Cron != "0 3 * * *" {
		t.Errorf("Cron = %q", info.Cron)
	}
}

func TestUpdateTaskReplacesCron(t *testing.T) {
	s, err := New(testutil.NopLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if err := s.RegisterTask(TaskConfig{ID: "t1", Cron: "0 3 * * *", Func: noop}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateTask(TaskConfig{ID: "t1", Cron: "30 4 * * 0", Func: noop}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	info, err := s.GetTask("t1")
	if err != nil {
		t.Fatal(err)
	}
	if info.Cron != "30 4 * * 0" {
		t.Errorf("Cron = %q, want updated", info.Cron)
	}
	if len(s.ListTasks()) != 1 {
		t.Errorf("ListTasks() = %d entries, want 1", len(s.ListTasks()))
	}
}

func TestUpdateTaskCreatesWhenMissing(t *testing.T) {
	s, err := New(testutil.NopLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if err := s.UpdateTask(TaskConfig{ID: "fresh", Cron: "0 1 * * *", Func: noop}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if _, err := s.GetTask("fresh"); err != nil {
		t.Errorf("GetTask() error = %v", err)
	}
}

func TestRemoveTask(t *testing.T) {
	s, err := New(testutil.NopLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if err := s.RegisterTask(TaskConfig{ID: "t1", Cron: "0 3 * * *", Func: noop}); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveTask("t1"); err != nil {
		t.Fatalf("RemoveTask() error = %v", err)
	}
	if _, err := s.GetTask("t1"); err == nil {
		t.Error("task still present after removal")
	}

	// Removing again is a no-op.
	if err := s.RemoveTask("t1"); err != nil {
		t.Errorf("second RemoveTask() error = %v", err)
	}
}

func TestRejectsInvalidCron(t *testing.T) {
	s, err := New(testutil.NopLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if err := s.RegisterTask(TaskConfig{ID: "bad", Cron: "not a cron", Func: noop}); err == nil {
		t.Error("RegisterTask() accepted an invalid cron expression")
	}
}
