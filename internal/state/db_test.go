package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DBPath(t.TempDir()))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "stagehand.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestSaveExecutionRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	exec := models.Execution{
		ID:        "ab12cd34",
		Task:      "build a rate limiter",
		Status:    models.ExecutionCompleted,
		StartTime: time.Now().Add(-time.Minute),
		Retries:   2,
		Results: map[models.Phase]string{
			models.PhaseSpecification: "spec text",
			models.PhaseIntegration:   "3/3 tests passed",
		},
	}
	if err := db.SaveExecution(ctx, exec); err != nil {
		t.Fatalf("SaveExecution failed: %v", err)
	}

	execs, err := db.ListExecutions(ctx)
	if err != nil {
		t.Fatalf("ListExecutions failed: %v", err)
	}
	if len(execs) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(execs))
	}

	got := execs[0]
	if got.ID != exec.ID || got.Task != exec.Task {
		t.Errorf("identity mismatch: %+v", got)
	}
	if got.Status != models.ExecutionCompleted {
		t.Errorf("status = %q", got.Status)
	}
	if got.Retries != 2 {
		t.Errorf("retries = %d, want 2", got.Retries)
	}
	if got.Results[models.PhaseSpecification] != "spec text" {
		t.Errorf("results = %v", got.Results)
	}
}

func TestSaveExecutionReplaces(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	exec := models.Execution{
		ID:        "ab12cd34",
		Task:      "task",
		Status:    models.ExecutionInProgress,
		StartTime: time.Now(),
	}
	if err := db.SaveExecution(ctx, exec); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	exec.Status = models.ExecutionFailed
	exec.Error = "spec validation failed"
	if err := db.SaveExecution(ctx, exec); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	execs, err := db.ListExecutions(ctx)
	if err != nil {
		t.Fatalf("ListExecutions failed: %v", err)
	}
	if len(execs) != 1 {
		t.Fatalf("expected 1 execution after replace, got %d", len(execs))
	}
	if execs[0].Status != models.ExecutionFailed || execs[0].Error != "spec validation failed" {
		t.Errorf("replaced record = %+v", execs[0])
	}
}

func TestListExecutionsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, id := range []string{"older", "middle", "newest"} {
		exec := models.Execution{
			ID:        id,
			Task:      "task " + id,
			Status:    models.ExecutionCompleted,
			StartTime: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.SaveExecution(ctx, exec); err != nil {
			t.Fatalf("saving %s: %v", id, err)
		}
	}

	execs, err := db.ListExecutions(ctx)
	if err != nil {
		t.Fatalf("ListExecutions failed: %v", err)
	}
	if len(execs) != 3 {
		t.Fatalf("expected 3 executions, got %d", len(execs))
	}
	if execs[0].ID != "newest" || execs[2].ID != "older" {
		t.Errorf("order = %s, %s, %s", execs[0].ID, execs[1].ID, execs[2].ID)
	}
}

func TestMetricsSnapshotRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := models.MetricsSnapshot{
		TasksCompleted: 1,
		Taken:          time.Now().Add(-time.Minute),
	}
	second := models.MetricsSnapshot{
		TasksCompleted:     3,
		TasksFailed:        1,
		TotalExecutionTime: 90 * time.Second,
		Agents: map[models.Role]models.AgentMetrics{
			models.RoleDev: {TasksCompleted: 5, TotalTime: time.Minute},
		},
		Taken: time.Now(),
	}
	if err := db.SaveMetricsSnapshot(ctx, first); err != nil {
		t.Fatalf("saving first snapshot: %v", err)
	}
	if err := db.SaveMetricsSnapshot(ctx, second); err != nil {
		t.Fatalf("saving second snapshot: %v", err)
	}

	snap, err := db.LatestMetricsSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestMetricsSnapshot failed: %v", err)
	}
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if snap.TasksCompleted != 3 || snap.TasksFailed != 1 {
		t.Errorf("counters = %d/%d", snap.TasksCompleted, snap.TasksFailed)
	}
	if snap.Agents[models.RoleDev].TasksCompleted != 5 {
		t.Errorf("dev agent metrics = %+v", snap.Agents[models.RoleDev])
	}
}

func TestLatestMetricsSnapshotEmpty(t *testing.T) {
	db := openTestDB(t)

	snap, err := db.LatestMetricsSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LatestMetricsSnapshot failed: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot, got %+v", snap)
	}
}
