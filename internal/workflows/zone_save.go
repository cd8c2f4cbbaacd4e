package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/editor"
	"github.com/samirrijal/pizzazones/internal/core/usecases"
)

// ZoneSaveInput is the write plan of a reconciled save. Error values do not
// survive workflow serialization, so zones skipped during planning travel
// as plain failures.
type ZoneSaveInput struct {
	Create    []domain.Zone
	Update    []domain.Zone
	Delete    []string
	Unchanged []string
	Skipped   []FailedZone
}

// FailedZone is one zone the workflow could not write.
type FailedZone struct {
	ZoneID string `json:"zone_id"`
	Op     string `json:"op"`
	Error  string `json:"error"`
}

// ZoneSaveResult mirrors usecases.SaveResult in a serializable form.
type ZoneSaveResult struct {
	Created   []string     `json:"created"`
	Updated   []string     `json:"updated"`
	Deleted   []string     `json:"deleted"`
	Unchanged []string     `json:"unchanged"`
	Failed    []FailedZone `json:"failed"`
}

// NewZoneSaveInput flattens a reconciliation diff into workflow input.
func NewZoneSaveInput(diff editor.Diff) ZoneSaveInput {
	in := ZoneSaveInput{
		Create: diff.ToCreate,
		Update: diff.ToUpdate,
	}
	for _, z := range diff.ToDelete {
		in.Delete = append(in.Delete, z.ID)
	}
	for _, z := range diff.Unchanged {
		in.Unchanged = append(in.Unchanged, z.ID)
	}
	for _, inv := range diff.Invalid {
		in.Skipped = append(in.Skipped, FailedZone{ZoneID: inv.ZoneID, Op: usecases.OpValidate, Error: inv.Err.Error()})
	}
	return in
}

// ZoneSaveWorkflow applies a save plan one zone at a time: deletes, then
// creates, then updates. Each write is retried on its own; a zone that
// still fails is reported and the batch carries on. The snapshot is
// broadcast once at the end whether or not every write landed.
func ZoneSaveWorkflow(ctx workflow.Context, input ZoneSaveInput) (ZoneSaveResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting zone save workflow",
		"create", len(input.Create), "update", len(input.Update), "delete", len(input.Delete))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	result := ZoneSaveResult{
		Unchanged: input.Unchanged,
		Failed:    append([]FailedZone(nil), input.Skipped...),
	}
	fail := func(id, op string, err error) {
		logger.Warn("zone write failed", "zone_id", id, "op", op, "error", err)
		result.Failed = append(result.Failed, FailedZone{ZoneID: id, Op: op, Error: err.Error()})
	}

	for _, id := range input.Delete {
		if err := workflow.ExecuteActivity(ctx, "DeleteZone", id).Get(ctx, nil); err != nil {
			fail(id, usecases.OpDelete, err)
			continue
		}
		result.Deleted = append(result.Deleted, id)
	}
	for _, z := range input.Create {
		if err := workflow.ExecuteActivity(ctx, "PutZone", z, usecases.OpCreate).Get(ctx, nil); err != nil {
			fail(z.ID, usecases.OpCreate, err)
			continue
		}
		result.Created = append(result.Created, z.ID)
	}
	for _, z := range input.Update {
		if err := workflow.ExecuteActivity(ctx, "PutZone", z, usecases.OpUpdate).Get(ctx, nil); err != nil {
			fail(z.ID, usecases.OpUpdate, err)
			continue
		}
		result.Updated = append(result.Updated, z.ID)
	}

	if len(input.Create)+len(input.Update)+len(input.Delete) > 0 {
		if err := workflow.ExecuteActivity(ctx, "PublishSnapshot").Get(ctx, nil); err != nil {
			logger.Warn("snapshot publish failed", "error", err)
		}
	}

	logger.Info("Zone save finished", "failed", len(result.Failed))
	return result, nil
}

// Starter launches zone save workflows on a task queue.
type Starter struct {
	Client    client.Client
	TaskQueue string
}

// StartZoneSave starts a workflow for diff and returns its workflow id.
func (s *Starter) StartZoneSave(ctx context.Context, diff editor.Diff) (string, error) {
	opts := client.StartWorkflowOptions{
		ID:        "zone-save-" + uuid.NewString(),
		TaskQueue: s.TaskQueue,
	}
	run, err := s.Client.ExecuteWorkflow(ctx, opts, ZoneSaveWorkflow, NewZoneSaveInput(diff))
	if err != nil {
		return "", fmt.Errorf("start zone save: %w", err)
	}
	return run.GetID(), nil
}
