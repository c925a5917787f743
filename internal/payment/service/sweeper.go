package service

import (
	"context"
	"errors"
	"time"

	paymentdomain "github.com/stegashield/stegashield/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sweepInterval  = time.Minute
	callbackWindow = 2 * time.Minute
	sweepBatchSize = 50
)

// Sweeper periodically resolves Pending payments whose callback never
// arrived by querying the gateway.
type Sweeper struct {
	db   *gorm.DB
	log  *zap.Logger
	repo paymentdomain.Repository
	svc  paymentdomain.Service

	cancel context.CancelFunc
	done   chan struct{}
}

type SweeperParams struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo paymentdomain.Repository
	Svc  paymentdomain.Service
}

func NewSweeper(lc fx.Lifecycle, p SweeperParams) *Sweeper {
	s := &Sweeper{
		db:   p.DB,
		log:  p.Log.Named("payment.sweeper"),
		repo: p.Repo,
		svc:  p.Svc,
		done: make(chan struct{}),
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			go s.run(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.cancel()
			select {
			case <-s.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
	return s
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass over stale Pending records.
func (s *Sweeper) Sweep(ctx context.Context) {
	stale, err := s.repo.ListStalePending(ctx, s.db, time.Now().Add(-callbackWindow), sweepBatchSize)
	if err != nil {
		s.log.Warn("stale payment listing failed", zap.Error(err))
		return
	}

	for _, payment := range stale {
		if ctx.Err() != nil {
			return
		}
		_, err := s.svc.Reconcile(ctx, 0, payment.CheckoutRequestID)
		if err != nil && !errors.Is(err, paymentdomain.ErrStillProcessing) {
			s.log.Warn("payment reconciliation failed",
				zap.String("payment_id", payment.ID.String()),
				zap.Error(err),
			)
		}
	}
}
