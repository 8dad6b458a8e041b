package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tedxcmr/internal/model"
	"tedxcmr/internal/repo"
)

func newTestRepo(t *testing.T) *repo.BunRepository {
	t.Helper()
	db, err := repo.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	log := zerolog.Nop()
	r := repo.NewBunRepository(db, &log)
	if err := r.CreateSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestRegistrations(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	first := &model.Registration{
		Name: "Asha", Email: "asha@example.com", Phone: "9000000001",
		College: "CMR", Year: "2", Department: "CSE",
		PaymentStatus: model.PaymentPending, CreatedAt: base,
	}
	second := &model.Registration{
		Name: "Ravi", Email: "ravi@example.com", Phone: "9000000002",
		College: "CMR", Year: "3", Department: "ECE",
		PaymentStatus: model.PaymentPending, CreatedAt: base.Add(time.Minute),
	}
	for _, reg := range []*model.Registration{first, second} {
		if err := r.CreateRegistration(ctx, reg); err != nil {
			t.Fatal(err)
		}
		if reg.ID == 0 {
			t.Fatal("expected generated id")
		}
	}

	regs, err := r.ListRegistrations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(regs) != 2 {
		t.Fatalf("expected 2 registrations, got %d", len(regs))
	}
	if regs[0].ID != second.ID || regs[1].ID != first.ID {
		t.Errorf("expected newest first, got ids %d, %d", regs[0].ID, regs[1].ID)
	}

	if err := r.UpdatePaymentStatus(ctx, first.ID, model.PaymentCompleted); err != nil {
		t.Fatal(err)
	}
	regs, err = r.ListRegistrations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if regs[1].PaymentStatus != model.PaymentCompleted {
		t.Errorf("expected completed, got %q", regs[1].PaymentStatus)
	}
	if regs[0].PaymentStatus != model.PaymentPending {
		t.Errorf("other registration changed to %q", regs[0].PaymentStatus)
	}

	if err := r.UpdatePaymentStatus(ctx, 9999, model.PaymentCompleted); !errors.Is(err, repo.ErrRegistrationNotFound) {
		t.Errorf("expected ErrRegistrationNotFound, got %v", err)
	}
}

func TestSpeakersOrderedAndDeleted(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	speakers := []*model.Speaker{
		{Name: "C", Title: "t", Bio: "b", ImageURL: "https://x/c.png", DisplayOrder: 2, CreatedAt: base},
		{Name: "A", Title: "t", Bio: "b", ImageURL: "https://x/a.png", DisplayOrder: 0, CreatedAt: base},
		{Name: "B", Title: "t", Bio: "b", ImageURL: "https://x/b.png", DisplayOrder: 1, CreatedAt: base},
	}
	for _, s := range speakers {
		if err := r.CreateSpeaker(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	got, err := r.ListSpeakers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names string
	for _, s := range got {
		names += s.Name
	}
	if names != "ABC" {
		t.Fatalf("expected display order ABC, got %s", names)
	}

	if err := r.DeleteSpeaker(ctx, speakers[2].ID); err != nil {
		t.Fatal(err)
	}
	if err := r.DeleteSpeaker(ctx, 424242); err != nil {
		t.Fatalf("deleting a missing id should succeed, got %v", err)
	}

	got, err = r.ListSpeakers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "C" {
		t.Fatalf("unexpected speakers after delete: %+v", got)
	}
}

func TestSponsors(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	gold := &model.Sponsor{Name: "Gold Co", Description: "d", ImageURL: "https://x/g.png", DisplayOrder: 1, CreatedAt: base}
	silver := &model.Sponsor{Name: "Silver Co", Description: "d", ImageURL: "https://x/s.png", DisplayOrder: 5, CreatedAt: base}
	for _, s := range []*model.Sponsor{silver, gold} {
		if err := r.CreateSponsor(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	got, err := r.ListSponsors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != gold.ID {
		t.Fatalf("expected gold first, got %+v", got)
	}

	if err := r.DeleteSponsor(ctx, gold.ID); err != nil {
		t.Fatal(err)
	}
	got, err = r.ListSponsors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != silver.ID {
		t.Fatalf("expected only silver left, got %+v", got)
	}
}

func TestReplySupportTicket(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	ticket := &model.SupportTicket{
		Name: "Meera", Email: "meera@example.com", Subject: "Refund",
		Message: "Paid twice", Status: model.TicketOpen, CreatedAt: base,
	}
	if err := r.CreateSupportTicket(ctx, ticket); err != nil {
		t.Fatal(err)
	}

	repliedAt := base.Add(time.Hour)
	got, err := r.ReplySupportTicket(ctx, ticket.ID, "Refund issued", repliedAt)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.TicketClosed {
		t.Errorf("expected closed, got %q", got.Status)
	}
	if got.AdminReply == nil || *got.AdminReply != "Refund issued" {
		t.Errorf("unexpected reply %v", got.AdminReply)
	}
	if got.RepliedAt == nil || !got.RepliedAt.Equal(repliedAt) {
		t.Errorf("unexpected replied_at %v", got.RepliedAt)
	}

	if _, err := r.ReplySupportTicket(ctx, ticket.ID, "again", repliedAt); !errors.Is(err, repo.ErrTicketClosed) {
		t.Errorf("expected ErrTicketClosed, got %v", err)
	}
	if _, err := r.ReplySupportTicket(ctx, 777, "hello", repliedAt); !errors.Is(err, repo.ErrTicketNotFound) {
		t.Errorf("expected ErrTicketNotFound, got %v", err)
	}

	tickets, err := r.ListSupportTickets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 1 || tickets[0].Status != model.TicketClosed || *tickets[0].AdminReply != "Refund issued" {
		t.Fatalf("list does not show the reply: %+v", tickets)
	}
}
