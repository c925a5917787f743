package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/stegashield/stegashield/internal/auth/domain"
)

func (s *Server) Register(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		Password    string `json:"password" binding:"required"`
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.authSvc.Register(c.Request.Context(), authdomain.RegisterRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	userID := user.ID
	_ = s.auditSvc.Record(c.Request.Context(), &userID, "auth.register", "user", user.ID.String(), nil)

	c.JSON(http.StatusCreated, gin.H{"data": user})
}

func (s *Server) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		TOTPCode string `json:"totp_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authSvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
		TOTPCode: req.TOTPCode,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	userID := result.User.ID
	_ = s.auditSvc.Record(c.Request.Context(), &userID, "auth.login", "user", result.User.ID.String(), nil)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"user":       result.User,
			"token":      result.Token,
			"expires_at": result.ExpiresAt.Format(time.RFC3339),
		},
	})
}

func (s *Server) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) UpdateProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req struct {
		DisplayName string `json:"display_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.userRepo.UpdateFields(c.Request.Context(), user.ID, map[string]any{
		"display_name": strings.TrimSpace(req.DisplayName),
		"updated_at":   time.Now().UTC(),
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	updated, err := s.authSvc.CurrentUser(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (s *Server) ChangePassword(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.authSvc.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		AbortWithError(c, err)
		return
	}

	userID := user.ID
	_ = s.auditSvc.Record(c.Request.Context(), &userID, "auth.password_changed", "user", user.ID.String(), nil)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": true}})
}

func (s *Server) SetupTOTP(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	setup, err := s.authSvc.SetupTOTP(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": setup})
}

func (s *Server) EnableTOTP(c *gin.Context) {
	s.totpToggle(c, true)
}

func (s *Server) DisableTOTP(c *gin.Context) {
	s.totpToggle(c, false)
}

func (s *Server) totpToggle(c *gin.Context, enable bool) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var err error
	action := "auth.2fa_disabled"
	if enable {
		err = s.authSvc.EnableTOTP(c.Request.Context(), user.ID, req.Code)
		action = "auth.2fa_enabled"
	} else {
		err = s.authSvc.DisableTOTP(c.Request.Context(), user.ID, req.Code)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	userID := user.ID
	_ = s.auditSvc.Record(c.Request.Context(), &userID, action, "user", user.ID.String(), nil)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"enabled": enable}})
}
