package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	paymentdomain "github.com/stegashield/stegashield/internal/payment/domain"
	"go.uber.org/zap"
)

func (s *Server) ListPlans(c *gin.Context) {
	plans, err := s.planSvc.List(c.Request.Context(), true)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

func (s *Server) CurrentPlan(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	plan, err := s.planSvc.Get(c.Request.Context(), user.PlanID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plan})
}

func (s *Server) CreatePayment(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req struct {
		PlanID      string `json:"plan_id" binding:"required"`
		Method      string `json:"method"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	planID, err := snowflake.ParseString(strings.TrimSpace(req.PlanID))
	if err != nil {
		AbortWithError(c, newValidationError("plan_id", "invalid_plan_id", "invalid plan id"))
		return
	}

	payment, err := s.paymentSvc.Create(c.Request.Context(), paymentdomain.CreatePaymentRequest{
		UserID:      user.ID,
		PlanID:      planID,
		Method:      req.Method,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		// The record, if any, is kept server-side; the initiation error
		// is what the caller needs in order to retry.
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payment})
}

// ConfirmPayment records the client-reported outcome of a manually
// settled payment. MPESA records are finalized by the gateway callback
// or QueryPayment instead.
func (s *Server) ConfirmPayment(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req struct {
		PaymentID string `json:"payment_id" binding:"required"`
		Status    string `json:"status" binding:"required"`
		Reference string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paymentID, err := snowflake.ParseString(strings.TrimSpace(req.PaymentID))
	if err != nil {
		AbortWithError(c, newValidationError("payment_id", "invalid_payment_id", "invalid payment id"))
		return
	}

	payment, err := s.paymentSvc.Confirm(c.Request.Context(), paymentdomain.ConfirmPaymentRequest{
		UserID:    user.ID,
		PaymentID: paymentID,
		Status:    strings.TrimSpace(req.Status),
		Reference: req.Reference,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) GetPayment(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid payment id"))
		return
	}

	payment, err := s.paymentSvc.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

// QueryPayment resolves a payment by gateway checkout request id.
func (s *Server) QueryPayment(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req struct {
		CheckoutRequestID string `json:"checkout_request_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	payment, err := s.paymentSvc.Reconcile(c.Request.Context(), user.ID, strings.TrimSpace(req.CheckoutRequestID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) PaymentHistory(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var query struct {
		Limit  int `form:"limit,default=20"`
		Offset int `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	payments, total, err := s.paymentSvc.History(c.Request.Context(), user.ID, query.Limit, query.Offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payments, "total": total})
}

// MpesaCallback ingests the asynchronous gateway webhook. Per the
// gateway contract the response is always 200 with ResultCode 0; any
// internal failure is observable only through logs.
func (s *Server) MpesaCallback(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		s.log.Warn("mpesa callback body read failed", zap.Error(err))
		s.ackCallback(c)
		return
	}

	if err := s.paymentSvc.HandleCallback(c.Request.Context(), raw); err != nil {
		s.log.Warn("mpesa callback not applied", zap.Error(err))
	}
	s.ackCallback(c)
}

func (s *Server) ackCallback(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ResultCode": 0,
		"ResultDesc": "Accepted",
	})
}
