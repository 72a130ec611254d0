// package services defines interface QueueService for the queue service HTTP API
package services

import (
	"context"

	"github.com/desertthunder/ytxq/internal/models"
)

// QueueService defines the queue operations the overlay consumes.
//
// The server owns ordering and admission; the client only reads state and asks for promotion.
type QueueService interface {
	// FetchState returns the current snapshot for owner. Idempotent.
	FetchState(ctx context.Context, owner string) (*models.QueueSnapshot, error)

	// Advance pops completed if it is still current, promotes the next queued item and returns the resulting snapshot.
	// A zero completed requests promotion without asserting which item finished.
	Advance(ctx context.Context, owner string, completed models.ItemID) (*models.QueueSnapshot, error)

	// ReportDuration is a best-effort metadata update for an item the server has no duration for.
	ReportDuration(ctx context.Context, owner string, id models.ItemID, seconds int) error
}
