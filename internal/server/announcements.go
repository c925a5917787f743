package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	announcementdomain "github.com/stegashield/stegashield/internal/announcement/domain"
)

func (s *Server) ListPublishedAnnouncements(c *gin.Context) {
	var query struct {
		Limit  int `form:"limit,default=20"`
		Offset int `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	announcements, total, err := s.announcementSvc.List(c.Request.Context(), true, query.Limit, query.Offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": announcements, "total": total})
}

func (s *Server) GetAnnouncement(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid announcement id"))
		return
	}

	announcement, err := s.announcementSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	// Drafts are only visible through the admin surface.
	if !announcement.Published {
		AbortWithError(c, announcementdomain.ErrAnnouncementNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": announcement})
}
