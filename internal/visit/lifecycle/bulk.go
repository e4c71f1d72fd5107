package lifecycle

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BulkResult reports the per-id outcome of a bulk transition.
type BulkResult struct {
	Succeeded []uuid.UUID
	Failed    map[uuid.UUID]error
}

// CheckOutAll applies CheckOut independently to every id. One failure
// does not prevent attempts on the others, there is no ordering
// guarantee between them, and no rollback coupling. An empty input is
// a no-op success.
func (en *Engine) CheckOutAll(ctx context.Context, ids []uuid.UUID) *BulkResult {
	result := &BulkResult{
		Succeeded: []uuid.UUID{},
		Failed:    map[uuid.UUID]error{},
	}
	if len(ids) == 0 {
		return result
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := en.CheckOut(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[id] = err
				return
			}
			result.Succeeded = append(result.Succeeded, id)
		}(id)
	}
	wg.Wait()

	if len(result.Failed) > 0 {
		en.logger.Warn("bulk check-out finished with failures",
			zap.Int("succeeded", len(result.Succeeded)),
			zap.Int("failed", len(result.Failed)),
		)
	}
	return result
}
