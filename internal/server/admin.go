package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	auditdomain "github.com/stegashield/stegashield/internal/audit/domain"
	authdomain "github.com/stegashield/stegashield/internal/auth/domain"
	paymentdomain "github.com/stegashield/stegashield/internal/payment/domain"
	plandomain "github.com/stegashield/stegashield/internal/plan/domain"
	watermarkdomain "github.com/stegashield/stegashield/internal/watermark/domain"
	"gorm.io/datatypes"
)

func (s *Server) AdminListUsers(c *gin.Context) {
	var query struct {
		Role   string `form:"role"`
		Limit  int    `form:"limit,default=50"`
		Offset int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	users, total, err := s.userRepo.List(c.Request.Context(), authdomain.ListFilter{
		Role:   query.Role,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total})
}

func (s *Server) AdminGetUser(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid user id"))
		return
	}

	user, err := s.userRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) AdminUpdateUser(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid user id"))
		return
	}

	var req struct {
		Role   string `json:"role"`
		PlanID string `json:"plan_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if role := strings.TrimSpace(req.Role); role != "" {
		if role != authdomain.RoleUser && role != authdomain.RoleAdmin {
			AbortWithError(c, newValidationError("role", "invalid_role", "invalid role"))
			return
		}
		fields["role"] = role
	}
	if planRef := strings.TrimSpace(req.PlanID); planRef != "" {
		planID, err := snowflake.ParseString(planRef)
		if err != nil {
			AbortWithError(c, newValidationError("plan_id", "invalid_plan_id", "invalid plan id"))
			return
		}
		if _, err := s.planSvc.Get(c.Request.Context(), planID); err != nil {
			AbortWithError(c, err)
			return
		}
		fields["plan_id"] = planID
	}

	if err := s.userRepo.UpdateFields(c.Request.Context(), id, fields); err != nil {
		AbortWithError(c, err)
		return
	}

	admin := currentUser(c)
	if admin != nil {
		adminID := admin.ID
		_ = s.auditSvc.Record(c.Request.Context(), &adminID, "admin.user_updated", "user", id.String(), map[string]any{
			"role":    req.Role,
			"plan_id": req.PlanID,
		})
	}

	user, err := s.userRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) AdminDeleteUser(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid user id"))
		return
	}

	admin := currentUser(c)
	if admin != nil && admin.ID == id {
		AbortWithError(c, newValidationError("id", "self_delete", "cannot delete your own account"))
		return
	}

	if err := s.userRepo.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	if admin != nil {
		adminID := admin.ID
		_ = s.auditSvc.Record(c.Request.Context(), &adminID, "admin.user_deleted", "user", id.String(), nil)
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) AdminAnalytics(c *gin.Context) {
	ctx := c.Request.Context()

	var userCount int64
	if err := s.db.WithContext(ctx).Model(&authdomain.User{}).Count(&userCount).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	var uploadCount int64
	if err := s.db.WithContext(ctx).Model(&watermarkdomain.Upload{}).Count(&uploadCount).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	var reportCount int64
	if err := s.db.WithContext(ctx).Model(&watermarkdomain.VerificationReport{}).Count(&reportCount).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	var revenue struct {
		TotalUSD decimal.NullDecimal
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT SUM(amount_usd) AS total_usd FROM payments WHERE status = ?`,
		paymentdomain.StatusSuccessful,
	).Scan(&revenue).Error
	if err != nil {
		AbortWithError(c, err)
		return
	}
	totalRevenue := decimal.Zero
	if revenue.TotalUSD.Valid {
		totalRevenue = revenue.TotalUSD.Decimal
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"users":         userCount,
			"uploads":       uploadCount,
			"verifications": reportCount,
			"revenue_usd":   totalRevenue,
		},
	})
}

func (s *Server) AdminListAuditLogs(c *gin.Context) {
	var query struct {
		PageToken string `form:"page_token"`
		PageSize  int    `form:"page_size,default=50"`
		Action    string `form:"action"`
		ActorID   string `form:"actor_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := auditdomain.ListAuditLogRequest{Action: query.Action}
	req.PageToken = query.PageToken
	req.PageSize = query.PageSize

	if trimmed := strings.TrimSpace(query.ActorID); trimmed != "" {
		actorID, err := snowflake.ParseString(trimmed)
		if err != nil {
			AbortWithError(c, newValidationError("actor_id", "invalid_actor_id", "invalid actor id"))
			return
		}
		req.ActorID = &actorID
	}

	resp, err := s.auditSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AdminListPayments(c *gin.Context) {
	var query struct {
		Status string `form:"status"`
		Limit  int    `form:"limit,default=50"`
		Offset int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	payments, total, err := s.paymentSvc.AdminList(c.Request.Context(), strings.TrimSpace(query.Status), query.Limit, query.Offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payments, "total": total})
}

func (s *Server) AdminListPlans(c *gin.Context) {
	plans, err := s.planSvc.List(c.Request.Context(), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

type planRequest struct {
	Code        string          `json:"code"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	UploadLimit int             `json:"upload_limit"`
	VerifyLimit int             `json:"verify_limit"`
	Features    []string        `json:"features"`
	Active      *bool           `json:"active"`
}

func (s *Server) AdminCreatePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	plan, err := s.planSvc.Create(c.Request.Context(), planFromRequest(req, snowflake.ID(0)))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": plan})
}

func (s *Server) AdminUpdatePlan(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid plan id"))
		return
	}

	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	plan, err := s.planSvc.Update(c.Request.Context(), planFromRequest(req, id))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plan})
}

func planFromRequest(req planRequest, id snowflake.ID) *plandomain.Plan {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	features := datatypes.JSON(`[]`)
	if len(req.Features) > 0 {
		if raw, err := json.Marshal(req.Features); err == nil {
			features = datatypes.JSON(raw)
		}
	}
	return &plandomain.Plan{
		ID:          id,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		PriceUSD:    req.PriceUSD,
		UploadLimit: req.UploadLimit,
		VerifyLimit: req.VerifyLimit,
		Features:    features,
		Active:      active,
	}
}

func (s *Server) AdminListTickets(c *gin.Context) {
	var query struct {
		Status string `form:"status"`
		Limit  int    `form:"limit,default=50"`
		Offset int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tickets, total, err := s.ticketSvc.ListByStatus(c.Request.Context(), query.Status, query.Limit, query.Offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tickets, "total": total})
}

func (s *Server) AdminReplyTicket(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	s.replyTicket(c, s.requester(user))
}

func (s *Server) AdminListAnnouncements(c *gin.Context) {
	var query struct {
		Limit  int `form:"limit,default=50"`
		Offset int `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	announcements, total, err := s.announcementSvc.List(c.Request.Context(), false, query.Limit, query.Offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": announcements, "total": total})
}

type announcementRequest struct {
	Title     string `json:"title" binding:"required"`
	Body      string `json:"body" binding:"required"`
	Published bool   `json:"published"`
}

func (s *Server) AdminCreateAnnouncement(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	announcement, err := s.announcementSvc.Create(c.Request.Context(), user.ID, req.Title, req.Body, req.Published)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": announcement})
}

func (s *Server) AdminUpdateAnnouncement(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid announcement id"))
		return
	}

	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	announcement, err := s.announcementSvc.Update(c.Request.Context(), id, req.Title, req.Body, req.Published)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": announcement})
}

func (s *Server) AdminDeleteAnnouncement(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid announcement id"))
		return
	}

	if err := s.announcementSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	admin := currentUser(c)
	if admin != nil {
		adminID := admin.ID
		_ = s.auditSvc.Record(c.Request.Context(), &adminID, "announcement.deleted", "announcement", id.String(), nil)
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) AdminListFlaggedUploads(c *gin.Context) {
	var query struct {
		Limit  int `form:"limit,default=50"`
		Offset int `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	uploads, total, err := s.watermarkSvc.ListFlagged(c.Request.Context(), query.Limit, query.Offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": uploads, "total": total})
}

func (s *Server) AdminFlagUpload(c *gin.Context) {
	s.adminSetUploadFlag(c, true)
}

func (s *Server) AdminUnflagUpload(c *gin.Context) {
	s.adminSetUploadFlag(c, false)
}

func (s *Server) adminSetUploadFlag(c *gin.Context, flagged bool) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid upload id"))
		return
	}

	upload, err := s.watermarkSvc.SetFlag(c.Request.Context(), id, flagged)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": upload})
}
