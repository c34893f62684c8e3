package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"finch/internal/domain/item"
	"finch/internal/domain/sync"
	"finch/internal/domain/user"
)

// ItemSyncJob runs one sync epoch for a single item.
type ItemSyncJob struct {
	itemID string
	engine *sync.Engine
}

func NewItemSyncJob(itemID string, engine *sync.Engine) *ItemSyncJob {
	return &ItemSyncJob{itemID: itemID, engine: engine}
}

// Execute runs the sync. An item that became non-syncable between
// scheduling and execution is skipped, not failed; everything else
// bubbles up so the pool records the error.
func (j *ItemSyncJob) Execute(ctx context.Context) error {
	result, err := j.engine.SyncItem(ctx, j.itemID)
	if err != nil {
		if errors.Is(err, sync.ErrItemNotSyncable) || errors.Is(err, item.ErrItemNotFound) {
			log.Printf("Skipping sync for item %s: %v", j.itemID, err)
			return nil
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	log.Printf("Scheduled sync for item %s: %d added, %d modified, %d removed",
		j.itemID, result.Added, result.Modified, result.Removed)
	return nil
}

func (j *ItemSyncJob) ItemID() string {
	return j.itemID
}

func (j *ItemSyncJob) Description() string {
	return fmt.Sprintf("Transaction sync for item %s", j.itemID)
}

// SyncJobProvider builds the nightly batch: one sync job per syncable
// item across all users.
func SyncJobProvider(users *user.Service, items *item.Registry, engine *sync.Engine) func(context.Context) ([]Job, error) {
	return func(ctx context.Context) ([]Job, error) {
		all, err := users.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users for sync batch: %w", err)
		}

		var jobs []Job
		for _, u := range all {
			userItems, err := items.ListByUser(ctx, u.ID)
			if err != nil {
				log.Printf("Scheduler: Failed to list items for user %s: %v", u.ID, err)
				continue
			}
			for _, it := range userItems {
				if !it.Status.Syncable() {
					continue
				}
				jobs = append(jobs, NewItemSyncJob(it.ID, engine))
			}
		}
		return jobs, nil
	}
}
