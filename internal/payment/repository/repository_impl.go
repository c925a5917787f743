package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stegashield/stegashield/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, user_id, plan_id, method, phone_number, amount_usd, amount_kes,
			exchange_rate, status, merchant_request_id, checkout_request_id,
			result_desc, receipt_number, failure_reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.UserID,
		payment.PlanID,
		payment.Method,
		payment.PhoneNumber,
		payment.AmountUSD,
		payment.AmountKES,
		payment.ExchangeRate,
		payment.Status,
		payment.MerchantRequestID,
		payment.CheckoutRequestID,
		payment.ResultDesc,
		payment.ReceiptNumber,
		payment.FailureReason,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repo) FindByCheckoutRequestID(ctx context.Context, db *gorm.DB, checkoutRequestID string) (*domain.Payment, error) {
	if checkoutRequestID == "" {
		return nil, domain.ErrPaymentNotFound
	}
	var payment domain.Payment
	err := db.WithContext(ctx).Where("checkout_request_id = ?", checkoutRequestID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit, offset int) ([]domain.Payment, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.Payment{}).Where("user_id = ?", userID)

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	stmt = stmt.Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if offset > 0 {
		stmt = stmt.Offset(offset)
	}

	var payments []domain.Payment
	if err := stmt.Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB, status string, limit, offset int) ([]domain.Payment, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.Payment{})
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	stmt = stmt.Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if offset > 0 {
		stmt = stmt.Offset(offset)
	}

	var payments []domain.Payment
	if err := stmt.Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *repo) SetCorrelation(ctx context.Context, db *gorm.DB, id snowflake.ID, merchantRequestID, checkoutRequestID string) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET merchant_request_id = ?, checkout_request_id = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		merchantRequestID,
		checkoutRequestID,
		time.Now().UTC(),
		id,
		domain.StatusPending,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotPending
	}
	return nil
}

func (r *repo) ApplyTerminal(ctx context.Context, db *gorm.DB, id snowflake.ID, update domain.TerminalUpdate) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, result_code = ?, result_desc = ?, receipt_number = ?,
		     failure_reason = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		update.Status,
		update.ResultCode,
		update.ResultDesc,
		update.ReceiptNumber,
		update.FailureReason,
		update.CompletedAt,
		update.CompletedAt,
		id,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ListStalePending(ctx context.Context, db *gorm.DB, olderThan time.Time, limit int) ([]domain.Payment, error) {
	stmt := db.WithContext(ctx).Model(&domain.Payment{}).
		Where("status = ?", domain.StatusPending).
		Where("checkout_request_id <> ''").
		Where("created_at < ?", olderThan.UTC()).
		Order("created_at asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	var payments []domain.Payment
	if err := stmt.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
