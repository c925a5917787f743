package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	watermarkdomain "github.com/stegashield/stegashield/internal/watermark/domain"
)

func (s *Server) CreateUpload(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req struct {
		FileName    string `json:"file_name" binding:"required"`
		ContentType string `json:"content_type"`
		SizeBytes   int64  `json:"size_bytes"`
		SHA256      string `json:"sha256" binding:"required"`
		WatermarkID string `json:"watermark_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	upload, err := s.watermarkSvc.CreateUpload(c.Request.Context(), watermarkdomain.CreateUploadRequest{
		UserID:      user.ID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		SHA256:      req.SHA256,
		WatermarkID: req.WatermarkID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": upload})
}

func (s *Server) CreateReport(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req struct {
		UploadID   string          `json:"upload_id"`
		Verdict    string          `json:"verdict" binding:"required"`
		Confidence decimal.Decimal `json:"confidence"`
		Detail     map[string]any  `json:"detail"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var uploadID *snowflake.ID
	if trimmed := strings.TrimSpace(req.UploadID); trimmed != "" {
		parsed, err := snowflake.ParseString(trimmed)
		if err != nil {
			AbortWithError(c, newValidationError("upload_id", "invalid_upload_id", "invalid upload id"))
			return
		}
		uploadID = &parsed
	}

	detail, err := marshalDetail(req.Detail)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	report, err := s.watermarkSvc.CreateReport(c.Request.Context(), watermarkdomain.CreateReportRequest{
		UserID:     user.ID,
		UploadID:   uploadID,
		Verdict:    strings.ToLower(strings.TrimSpace(req.Verdict)),
		Confidence: req.Confidence,
		Detail:     detail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": report})
}

func (s *Server) ListUploads(c *gin.Context) {
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

	uploads, total, err := s.watermarkSvc.ListUploads(c.Request.Context(), user.ID, query.Limit, query.Offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": uploads, "total": total})
}

func (s *Server) ListReports(c *gin.Context) {
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

	reports, total, err := s.watermarkSvc.ListReports(c.Request.Context(), user.ID, query.Limit, query.Offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reports, "total": total})
}

func (s *Server) GetReport(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid report id"))
		return
	}

	report, err := s.watermarkSvc.GetReport(c.Request.Context(), user.ID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func marshalDetail(detail map[string]any) ([]byte, error) {
	if len(detail) == 0 {
		return nil, nil
	}
	return json.Marshal(detail)
}
