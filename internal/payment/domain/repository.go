package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByCheckoutRequestID(ctx context.Context, db *gorm.DB, checkoutRequestID string) (*Payment, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit, offset int) ([]Payment, int64, error)
	ListAll(ctx context.Context, db *gorm.DB, status string, limit, offset int) ([]Payment, int64, error)

	// SetCorrelation stores the gateway ids on a still-Pending record.
	SetCorrelation(ctx context.Context, db *gorm.DB, id snowflake.ID, merchantRequestID, checkoutRequestID string) error

	// ApplyTerminal performs the single conditional transition out of
	// Pending. Returns false when the row was already terminal, which
	// makes duplicate callbacks and callback/query races safe: whichever
	// transition commits first wins and the loser is discarded.
	ApplyTerminal(ctx context.Context, db *gorm.DB, id snowflake.ID, update TerminalUpdate) (bool, error)

	// ListStalePending returns Pending records with a checkout request
	// id older than the given age, for the reconciliation sweep.
	ListStalePending(ctx context.Context, db *gorm.DB, olderThan time.Time, limit int) ([]Payment, error)
}
