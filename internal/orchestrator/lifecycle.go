package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/pkg/models"
)

// snapshotTimeFormat keys snapshot files by a sortable timestamp.
const snapshotTimeFormat = "20060102-150405.000"

// Shutdown stops the orchestrator: every agent is shut down
// gracefully, the router's queue is closed and drained, and the final
// metrics snapshot is persisted to the runtime directory. Active
// executions are not waited for. Safe to call more than once; only
// the first call does the work.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	var err error
	o.shutdownOnce.Do(func() {
		for _, a := range o.agents() {
			if serr := a.Shutdown(ctx); serr != nil {
				log.Printf("[orchestrator] shutdown of agent %s failed: %v", a.Role(), serr)
			}
		}
		o.router.Close()

		snap := o.metrics.Snapshot()
		var path string
		path, err = o.writeSnapshot(snap)
		if err != nil {
			return
		}
		log.Printf("[orchestrator] metrics snapshot written to %s", path)

		if o.store != nil {
			if serr := o.store.SaveMetricsSnapshot(ctx, snap); serr != nil {
				log.Printf("[orchestrator] failed to store metrics snapshot: %v", serr)
			}
		}
	})
	return err
}

// writeSnapshot persists one metrics snapshot as a self-contained JSON
// file in the runtime directory, named by the snapshot timestamp.
func (o *Orchestrator) writeSnapshot(snap models.MetricsSnapshot) (string, error) {
	dir := o.cfg.Pipeline.RuntimeDir
	if dir == "" {
		dir = config.DefaultRuntimeDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create runtime directory: %w", err)
	}

	name := fmt.Sprintf("metrics-%s.json", snap.Taken.UTC().Format(snapshotTimeFormat))
	path := filepath.Join(dir, name)

	doc, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metrics snapshot: %w", err)
	}
	if err := os.WriteFile(path, doc, 0644); err != nil {
		return "", fmt.Errorf("write metrics snapshot: %w", err)
	}
	return path, nil
}
