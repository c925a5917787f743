package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	ticketdomain "github.com/stegashield/stegashield/internal/ticket/domain"
	ticketrepo "github.com/stegashield/stegashield/internal/ticket/repository"
	ticketservice "github.com/stegashield/stegashield/internal/ticket/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTicketService(t *testing.T) (ticketdomain.Service, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_ticket_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	schema := []string{
		`CREATE TABLE tickets (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			subject TEXT NOT NULL,
			body TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE ticket_replies (
			id BIGINT PRIMARY KEY,
			ticket_id BIGINT NOT NULL,
			author_id BIGINT NOT NULL,
			body TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	node, err := snowflake.NewNode(13)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	svc := ticketservice.NewService(ticketservice.Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  ticketrepo.New(db),
	})
	return svc, node
}

func TestTicketReplyLifecycle(t *testing.T) {
	svc, node := newTicketService(t)
	ctx := context.Background()

	owner := node.Generate()
	admin := node.Generate()

	ticket, err := svc.Create(ctx, owner, "Payment stuck", "My upgrade never completed.")
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	if ticket.Status != ticketdomain.StatusOpen {
		t.Fatalf("expected open ticket, got %s", ticket.Status)
	}

	// An admin reply marks the ticket answered.
	if _, err := svc.Reply(ctx, ticketdomain.RequesterInfo{UserID: admin, Admin: true}, ticket.ID, "Looking into it."); err != nil {
		t.Fatalf("admin reply: %v", err)
	}
	got, err := svc.Get(ctx, ticketdomain.RequesterInfo{UserID: owner}, ticket.ID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if got.Status != ticketdomain.StatusAnswered {
		t.Fatalf("expected answered after admin reply, got %s", got.Status)
	}
	if len(got.Replies) != 1 {
		t.Fatalf("expected one reply, got %d", len(got.Replies))
	}

	// A user reply reopens it.
	if _, err := svc.Reply(ctx, ticketdomain.RequesterInfo{UserID: owner}, ticket.ID, "Still broken."); err != nil {
		t.Fatalf("user reply: %v", err)
	}
	got, err = svc.Get(ctx, ticketdomain.RequesterInfo{UserID: owner}, ticket.ID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if got.Status != ticketdomain.StatusOpen {
		t.Fatalf("expected open after user reply, got %s", got.Status)
	}

	closed, err := svc.Close(ctx, ticketdomain.RequesterInfo{UserID: owner}, ticket.ID)
	if err != nil {
		t.Fatalf("close ticket: %v", err)
	}
	if closed.Status != ticketdomain.StatusClosed {
		t.Fatalf("expected closed, got %s", closed.Status)
	}

	if _, err := svc.Reply(ctx, ticketdomain.RequesterInfo{UserID: owner}, ticket.ID, "One more thing"); !errors.Is(err, ticketdomain.ErrTicketClosed) {
		t.Fatalf("expected ErrTicketClosed, got %v", err)
	}
}

func TestTicketOwnershipHidesOtherUsers(t *testing.T) {
	svc, node := newTicketService(t)
	ctx := context.Background()

	owner := node.Generate()
	stranger := node.Generate()

	ticket, err := svc.Create(ctx, owner, "Subject", "Body")
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}

	if _, err := svc.Get(ctx, ticketdomain.RequesterInfo{UserID: stranger}, ticket.ID); !errors.Is(err, ticketdomain.ErrTicketNotFound) {
		t.Fatalf("expected not found for stranger, got %v", err)
	}
	// Admins see every ticket.
	if _, err := svc.Get(ctx, ticketdomain.RequesterInfo{UserID: stranger, Admin: true}, ticket.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
}

func TestTicketCreateValidation(t *testing.T) {
	svc, node := newTicketService(t)

	if _, err := svc.Create(context.Background(), node.Generate(), "  ", "body"); !errors.Is(err, ticketdomain.ErrInvalidTicket) {
		t.Fatalf("expected ErrInvalidTicket for blank subject, got %v", err)
	}
	if _, err := svc.Create(context.Background(), node.Generate(), "subject", ""); !errors.Is(err, ticketdomain.ErrInvalidTicket) {
		t.Fatalf("expected ErrInvalidTicket for blank body, got %v", err)
	}
}
