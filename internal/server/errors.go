package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	announcementdomain "github.com/stegashield/stegashield/internal/announcement/domain"
	authdomain "github.com/stegashield/stegashield/internal/auth/domain"
	paymentdomain "github.com/stegashield/stegashield/internal/payment/domain"
	plandomain "github.com/stegashield/stegashield/internal/plan/domain"
	ticketdomain "github.com/stegashield/stegashield/internal/ticket/domain"
	watermarkdomain "github.com/stegashield/stegashield/internal/watermark/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal_error")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrTOTPRequired),
		errors.Is(err, authdomain.ErrTOTPInvalid):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: err.Error(),
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, authdomain.ErrTOTPAlreadyEnabled),
		errors.Is(err, plandomain.ErrPlanExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, ErrTooManyRequests),
		errors.Is(err, watermarkdomain.ErrUploadQuota),
		errors.Is(err, watermarkdomain.ErrVerifyQuota):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: err.Error(),
		}
	case errors.Is(err, paymentdomain.ErrGatewayRejected):
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_error",
			Message: "payment gateway rejected the request",
		}
	case errors.Is(err, paymentdomain.ErrGatewayAmbiguous):
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_ambiguous",
			Message: "payment gateway outcome unknown, the payment is kept pending",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, paymentdomain.ErrInvalidPhone),
		errors.Is(err, paymentdomain.ErrFreePlan),
		errors.Is(err, paymentdomain.ErrNoCorrelation),
		errors.Is(err, paymentdomain.ErrInvalidMethod),
		errors.Is(err, paymentdomain.ErrInvalidStatus),
		errors.Is(err, paymentdomain.ErrNotConfirmable),
		errors.Is(err, plandomain.ErrPlanInactive),
		errors.Is(err, plandomain.ErrInvalidPlan),
		errors.Is(err, watermarkdomain.ErrInvalidUpload),
		errors.Is(err, watermarkdomain.ErrInvalidVerdict),
		errors.Is(err, ticketdomain.ErrInvalidTicket),
		errors.Is(err, ticketdomain.ErrTicketClosed),
		errors.Is(err, announcementdomain.ErrInvalidAnnouncement),
		errors.Is(err, authdomain.ErrTOTPNotEnabled):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, paymentdomain.ErrPaymentNotFound),
		errors.Is(err, watermarkdomain.ErrUploadNotFound),
		errors.Is(err, watermarkdomain.ErrReportNotFound),
		errors.Is(err, ticketdomain.ErrTicketNotFound),
		errors.Is(err, announcementdomain.ErrAnnouncementNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
