package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/stegashield/stegashield/internal/auth/domain"
	ticketdomain "github.com/stegashield/stegashield/internal/ticket/domain"
)

func (s *Server) CreateTicket(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req struct {
		Subject string `json:"subject" binding:"required"`
		Body    string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ticket, err := s.ticketSvc.Create(c.Request.Context(), user.ID, req.Subject, req.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": ticket})
}

func (s *Server) MyTickets(c *gin.Context) {
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

	tickets, total, err := s.ticketSvc.ListByUser(c.Request.Context(), user.ID, query.Limit, query.Offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tickets, "total": total})
}

func (s *Server) GetTicket(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid ticket id"))
		return
	}

	ticket, err := s.ticketSvc.Get(c.Request.Context(), s.requester(user), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ticket})
}

func (s *Server) CloseTicket(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid ticket id"))
		return
	}

	ticket, err := s.ticketSvc.Close(c.Request.Context(), s.requester(user), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ticket})
}

func (s *Server) ReplyTicket(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	s.replyTicket(c, s.requester(user))
}

func (s *Server) replyTicket(c *gin.Context, requester ticketdomain.RequesterInfo) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid ticket id"))
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	reply, err := s.ticketSvc.Reply(c.Request.Context(), requester, id, req.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": reply})
}

func (s *Server) requester(user *authdomain.User) ticketdomain.RequesterInfo {
	return ticketdomain.RequesterInfo{
		UserID: user.ID,
		Admin:  user.IsAdmin(),
	}
}
