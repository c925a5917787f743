package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ticketdomain "github.com/stegashield/stegashield/internal/ticket/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  ticketdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  ticketdomain.Repository
}

func NewService(p Params) ticketdomain.Service {
	return &Service{
		log:   p.Log.Named("ticket.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, userID snowflake.ID, subject, body string) (*ticketdomain.Ticket, error) {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if subject == "" || body == "" {
		return nil, ticketdomain.ErrInvalidTicket
	}

	now := time.Now().UTC()
	ticket := &ticketdomain.Ticket{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Subject:   subject,
		Body:      body,
		Status:    ticketdomain.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *Service) Get(ctx context.Context, requester ticketdomain.RequesterInfo, id snowflake.ID) (*ticketdomain.Ticket, error) {
	ticket, err := s.authorize(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	replies, err := s.repo.ListReplies(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Replies = replies
	return ticket, nil
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID, limit, offset int) ([]ticketdomain.Ticket, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]ticketdomain.Ticket, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByStatus(ctx, strings.TrimSpace(status), limit, offset)
}

func (s *Service) Reply(ctx context.Context, requester ticketdomain.RequesterInfo, id snowflake.ID, body string) (*ticketdomain.Reply, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ticketdomain.ErrInvalidTicket
	}

	ticket, err := s.authorize(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status == ticketdomain.StatusClosed {
		return nil, ticketdomain.ErrTicketClosed
	}

	now := time.Now().UTC()
	reply := &ticketdomain.Reply{
		ID:        s.genID.Generate(),
		TicketID:  ticket.ID,
		AuthorID:  requester.UserID,
		Body:      body,
		CreatedAt: now,
	}
	if err := s.repo.CreateReply(ctx, reply); err != nil {
		return nil, err
	}

	// An admin reply marks the ticket answered; a user reply reopens it.
	status := ticketdomain.StatusOpen
	if requester.Admin {
		status = ticketdomain.StatusAnswered
	}
	if err := s.repo.UpdateStatus(ctx, ticket.ID, status, now); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *Service) Close(ctx context.Context, requester ticketdomain.RequesterInfo, id snowflake.ID) (*ticketdomain.Ticket, error) {
	ticket, err := s.authorize(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status == ticketdomain.StatusClosed {
		return ticket, nil
	}

	if err := s.repo.UpdateStatus(ctx, ticket.ID, ticketdomain.StatusClosed, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, ticket.ID)
}

func (s *Service) authorize(ctx context.Context, requester ticketdomain.RequesterInfo, id snowflake.ID) (*ticketdomain.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.Admin && ticket.UserID != requester.UserID {
		return nil, ticketdomain.ErrTicketNotFound
	}
	return ticket, nil
}
