package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/stegashield/stegashield/internal/audit/domain"
	authdomain "github.com/stegashield/stegashield/internal/auth/domain"
	"github.com/stegashield/stegashield/internal/config"
	obsmetrics "github.com/stegashield/stegashield/internal/observability/metrics"
	paymentdomain "github.com/stegashield/stegashield/internal/payment/domain"
	plandomain "github.com/stegashield/stegashield/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Rates      *config.RatesHolder
	Gateway    paymentdomain.Gateway
	Repo       paymentdomain.Repository
	Plans      plandomain.Repository
	AuditSvc   auditdomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	rates      *config.RatesHolder
	gateway    paymentdomain.Gateway
	repo       paymentdomain.Repository
	plans      plandomain.Repository
	auditSvc   auditdomain.Service
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		rates:      p.Rates,
		gateway:    p.Gateway,
		repo:       p.Repo,
		plans:      p.Plans,
		auditSvc:   p.AuditSvc,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req paymentdomain.CreatePaymentRequest) (*paymentdomain.Payment, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = paymentdomain.MethodMpesa
	}
	if !paymentdomain.ValidMethod(method) {
		return nil, paymentdomain.ErrInvalidMethod
	}

	// The phone number only matters for the STK push prompt.
	var phone string
	if method == paymentdomain.MethodMpesa {
		var err error
		phone, err = paymentdomain.NormalizePhone(req.PhoneNumber)
		if err != nil {
			return nil, err
		}
	}

	plan, err := s.plans.FindByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, plandomain.ErrPlanInactive
	}
	if plan.IsFree() {
		return nil, paymentdomain.ErrFreePlan
	}

	now := time.Now().UTC()
	payment := &paymentdomain.Payment{
		ID:          s.genID.Generate(),
		UserID:      req.UserID,
		PlanID:      plan.ID,
		Method:      method,
		PhoneNumber: phone,
		AmountUSD:   plan.PriceUSD,
		Status:      paymentdomain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if method == paymentdomain.MethodMpesa {
		// Snapshot the exchange rate at initiation so the conversion
		// used for the charge survives later rate changes.
		rate := s.rates.Current().USDToKES
		payment.ExchangeRate = rate
		payment.AmountKES = paymentdomain.KESAmount(plan.PriceUSD, rate)
	}
	if err := s.repo.Insert(ctx, s.db, payment); err != nil {
		return nil, err
	}

	if method != paymentdomain.MethodMpesa {
		// Settled outside the gateway; the record waits for Confirm.
		s.log.Info("manual payment created",
			zap.String("payment_id", payment.ID.String()),
			zap.String("method", method),
		)
		return payment, nil
	}

	resp, err := s.gateway.InitiateSTKPush(ctx, paymentdomain.STKPushRequest{
		PhoneNumber: phone,
		Amount:      payment.AmountKES,
		Reference:   payment.ID.String(),
		Description: fmt.Sprintf("%s plan", plan.Name),
	})
	switch {
	case err == nil:
		if err := s.repo.SetCorrelation(ctx, s.db, payment.ID, resp.MerchantRequestID, resp.CheckoutRequestID); err != nil {
			return nil, err
		}
		payment.MerchantRequestID = resp.MerchantRequestID
		payment.CheckoutRequestID = resp.CheckoutRequestID
		s.recordGatewayCall("stk_push", "accepted")
		s.log.Info("stk push initiated",
			zap.String("payment_id", payment.ID.String()),
			zap.String("checkout_request_id", resp.CheckoutRequestID),
		)

	case errors.Is(err, paymentdomain.ErrGatewayAmbiguous):
		// The gateway may have accepted the push before the response was
		// lost. The record stays Pending with no checkout request id;
		// the caller sees the ambiguity and retries or reconciles.
		s.recordGatewayCall("stk_push", "ambiguous")
		s.log.Warn("stk push outcome unknown, leaving payment pending",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
		return payment, err

	default:
		s.recordGatewayCall("stk_push", "rejected")
		applied, applyErr := s.applyOutcome(ctx, payment, paymentdomain.TerminalUpdate{
			Status:        paymentdomain.StatusFailed,
			FailureReason: err.Error(),
			CompletedAt:   time.Now().UTC(),
		}, "initiation")
		if applyErr != nil {
			return nil, applyErr
		}
		if applied {
			payment.Status = paymentdomain.StatusFailed
			payment.FailureReason = err.Error()
		}
		// The definite refusal is surfaced so the caller can retry
		// against the kept Failed record.
		return payment, err
	}

	return payment, nil
}

func (s *Service) Confirm(ctx context.Context, req paymentdomain.ConfirmPaymentRequest) (*paymentdomain.Payment, error) {
	if req.Status != paymentdomain.StatusSuccessful && req.Status != paymentdomain.StatusFailed {
		return nil, paymentdomain.ErrInvalidStatus
	}

	payment, err := s.repo.FindByID(ctx, s.db, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if req.UserID != 0 && payment.UserID != req.UserID {
		return nil, paymentdomain.ErrPaymentNotFound
	}
	if payment.Method == paymentdomain.MethodMpesa {
		return nil, paymentdomain.ErrNotConfirmable
	}
	if payment.IsTerminal() {
		return payment, nil
	}

	update := paymentdomain.TerminalUpdate{
		Status:      req.Status,
		CompletedAt: time.Now().UTC(),
	}
	if req.Status == paymentdomain.StatusSuccessful {
		update.ReceiptNumber = strings.TrimSpace(req.Reference)
	} else {
		update.FailureReason = "Rejected by payment provider"
	}

	if _, err := s.applyOutcome(ctx, payment, update, "confirm"); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, s.db, payment.ID)
}

func (s *Service) HandleCallback(ctx context.Context, raw []byte) error {
	cb, err := paymentdomain.ParseCallback(raw)
	if err != nil {
		return err
	}

	payment, err := s.repo.FindByCheckoutRequestID(ctx, s.db, cb.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrPaymentNotFound) {
			// An initiation we never recorded. Log and acknowledge; do
			// not create a record for it.
			s.log.Warn("callback references unknown checkout request",
				zap.String("checkout_request_id", cb.CheckoutRequestID),
			)
			return paymentdomain.ErrUnmatchedCallback
		}
		return err
	}

	update := terminalFromResult(cb.ResultCode, cb.ResultDesc, cb.ReceiptNumber())
	applied, err := s.applyOutcome(ctx, payment, update, "callback")
	if err != nil {
		return err
	}
	if !applied {
		// Duplicate delivery or a lost race with the query path.
		s.log.Info("callback for already finalized payment ignored",
			zap.String("payment_id", payment.ID.String()),
			zap.String("checkout_request_id", cb.CheckoutRequestID),
		)
	}
	return nil
}

func (s *Service) Reconcile(ctx context.Context, userID snowflake.ID, checkoutRequestID string) (*paymentdomain.Payment, error) {
	payment, err := s.repo.FindByCheckoutRequestID(ctx, s.db, checkoutRequestID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && payment.UserID != userID {
		return nil, paymentdomain.ErrPaymentNotFound
	}
	if payment.IsTerminal() {
		return payment, nil
	}
	if payment.CheckoutRequestID == "" {
		return nil, paymentdomain.ErrNoCorrelation
	}

	resp, err := s.gateway.QueryStatus(ctx, payment.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrStillProcessing) {
			// The prompt is unresolved; do not invent a terminal state.
			s.recordGatewayCall("query", "processing")
			return payment, nil
		}
		s.recordGatewayCall("query", "error")
		return nil, err
	}
	s.recordGatewayCall("query", "resolved")

	update := terminalFromResult(resp.ResultCode, resp.ResultDesc, "")
	if _, err := s.applyOutcome(ctx, payment, update, "query"); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, s.db, payment.ID)
}

func (s *Service) Get(ctx context.Context, userID, id snowflake.ID) (*paymentdomain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if userID != 0 && payment.UserID != userID {
		return nil, paymentdomain.ErrPaymentNotFound
	}
	return payment, nil
}

func (s *Service) History(ctx context.Context, userID snowflake.ID, limit, offset int) ([]paymentdomain.Payment, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, s.db, userID, limit, offset)
}

func (s *Service) AdminList(ctx context.Context, status string, limit, offset int) ([]paymentdomain.Payment, int64, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	return s.repo.ListAll(ctx, s.db, status, limit, offset)
}

// applyOutcome commits the single Pending -> terminal transition. A
// Successful transition and the plan upgrade commit in one transaction
// so the user never pays without receiving service. Returns false when
// another path finalized the record first.
func (s *Service) applyOutcome(ctx context.Context, payment *paymentdomain.Payment, update paymentdomain.TerminalUpdate, source string) (bool, error) {
	var applied bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		applied, err = s.repo.ApplyTerminal(ctx, tx, payment.ID, update)
		if err != nil {
			return err
		}
		if !applied || update.Status != paymentdomain.StatusSuccessful {
			return nil
		}

		res := tx.WithContext(ctx).Model(&authdomain.User{}).
			Where("id = ?", payment.UserID).
			Updates(map[string]any{
				"plan_id":    payment.PlanID,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return authdomain.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if !applied {
		s.recordTransition(update.Status, source, false)
		return false, nil
	}

	s.recordTransition(update.Status, source, true)
	s.log.Info("payment finalized",
		zap.String("payment_id", payment.ID.String()),
		zap.String("status", update.Status),
		zap.String("source", source),
	)

	actorID := payment.UserID
	if err := s.auditSvc.Record(ctx, &actorID, "payment."+strings.ToLower(update.Status), "payment", payment.ID.String(), map[string]any{
		"plan_id": payment.PlanID.String(),
		"source":  source,
		"receipt": update.ReceiptNumber,
	}); err != nil {
		s.log.Warn("payment audit write failed", zap.Error(err))
	}

	return true, nil
}

func (s *Service) recordTransition(status, source string, applied bool) {
	if s.obsMetrics == nil {
		return
	}
	outcome := strings.ToLower(status)
	if !applied {
		outcome = "discarded"
	}
	s.obsMetrics.RecordPaymentTransition("stk_push", outcome, source)
}

func (s *Service) recordGatewayCall(operation, result string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordGatewayCall(operation, result)
}

func terminalFromResult(resultCode int, resultDesc, receipt string) paymentdomain.TerminalUpdate {
	code := resultCode
	update := paymentdomain.TerminalUpdate{
		ResultCode:  &code,
		ResultDesc:  resultDesc,
		CompletedAt: time.Now().UTC(),
	}
	if resultCode == paymentdomain.ResultCodeSuccess {
		update.Status = paymentdomain.StatusSuccessful
		update.ReceiptNumber = receipt
	} else {
		update.Status = paymentdomain.StatusFailed
		update.FailureReason = resultDesc
	}
	return update
}
