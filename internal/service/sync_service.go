package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/ports"
	"github.com/Brandonkhumalo/ShopSync/internal/repository"
)

// SyncService merges client batches into server state. Merges are
// idempotent by local_id, so a client may replay a failed batch
// verbatim. Two devices of the same shop syncing the same local_id
// concurrently race on last-write-wins with server merge time as the
// tiebreak; that is accepted behavior, not a defect.
type SyncService struct {
	Store  ports.SyncStore
	Logger *slog.Logger
	Now    func() time.Time
}

// Merge applies one batch in a single transaction: items, then sales,
// then debts. Nothing is committed unless every row merges; the shop is
// verified before any entity is touched.
func (s SyncService) Merge(ctx context.Context, shopID string, batch domain.SyncBatch) (*domain.SyncResults, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback(ctx)

	exists, err := tx.ShopExists(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrShopNotFound
	}

	mergeTime := s.now().UnixMilli()
	results := &domain.SyncResults{SyncTime: mergeTime}

	for _, change := range batch.Items {
		created, err := tx.UpsertItem(ctx, shopID, change, mergeTime)
		if err != nil {
			return nil, fmt.Errorf("merge item %s: %w", change.LocalID, err)
		}
		if created {
			results.Items.Created++
		} else {
			results.Items.Updated++
		}
	}

	for _, change := range batch.Sales {
		created, err := tx.InsertSale(ctx, shopID, change, mergeTime)
		if err != nil {
			return nil, fmt.Errorf("merge sale %s: %w", change.LocalID, err)
		}
		if created {
			results.Sales.Created++
		}
	}

	for _, change := range batch.Debts {
		created, err := tx.UpsertDebt(ctx, shopID, change, mergeTime)
		if err != nil {
			return nil, fmt.Errorf("merge debt %s: %w", change.LocalID, err)
		}
		if created {
			results.Debts.Created++
		} else {
			results.Debts.Updated++
		}
	}

	if err := tx.AppendSyncLog(ctx, shopID, mergeTime, true); err != nil {
		return nil, fmt.Errorf("append sync log: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit merge: %w", err)
	}

	if s.Logger != nil {
		s.Logger.Info("sync batch merged", "shop_id", shopID,
			"items_created", results.Items.Created, "items_updated", results.Items.Updated,
			"sales_created", results.Sales.Created,
			"debts_created", results.Debts.Created, "debts_updated", results.Debts.Updated)
	}
	return results, nil
}

// Status returns the most recent sync attempt, or nil when the shop has
// never synced.
func (s SyncService) Status(ctx context.Context, shopID string) (*domain.SyncLog, error) {
	log, err := s.Store.LastSyncLog(ctx, shopID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return log, nil
}

func (s SyncService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
