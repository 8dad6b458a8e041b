package repo_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"tedxcmr/internal/model"
	"tedxcmr/internal/repo"
)

const pgMigrations = "../../migrations/postgres"

// newPostgresRepo runs against the database named by TEDX_TEST_PG_DSN. The
// schema is dropped before and after, so point it at a throwaway database.
func newPostgresRepo(t *testing.T) *repo.PostgresRepository {
	t.Helper()
	dsn := os.Getenv("TEDX_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEDX_TEST_PG_DSN not set")
	}

	db, err := dbpg.New(dsn, nil, &dbpg.Options{MaxOpenConns: 5, MaxIdleConns: 2})
	if err != nil {
		t.Fatal(err)
	}
	log := zerolog.Nop()
	r, err := repo.NewRepository(db, &log)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.MigrateDown(pgMigrations); err != nil {
		t.Fatal(err)
	}
	if err := r.MigrateUp(pgMigrations); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := r.MigrateDown(pgMigrations); err != nil {
			t.Errorf("migrate down: %v", err)
		}
		_ = r.Close()
	})
	return r
}

func TestPostgresRegistrations(t *testing.T) {
	ctx := context.Background()
	r := newPostgresRepo(t)

	reg := &model.Registration{
		Name: "Asha", Email: "asha@example.com", Phone: "9000000001",
		College: "CMR", Year: "2", Department: "CSE",
		PaymentStatus: model.PaymentPending, CreatedAt: base,
	}
	if err := r.CreateRegistration(ctx, reg); err != nil {
		t.Fatal(err)
	}

	regs, err := r.ListRegistrations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(regs) != 1 || regs[0].ID != reg.ID || regs[0].PaymentStatus != model.PaymentPending {
		t.Fatalf("created registration not listed: %+v", regs)
	}

	if err := r.UpdatePaymentStatus(ctx, reg.ID, model.PaymentCompleted); err != nil {
		t.Fatal(err)
	}
	if err := r.UpdatePaymentStatus(ctx, reg.ID+100, model.PaymentCompleted); !errors.Is(err, repo.ErrRegistrationNotFound) {
		t.Fatalf("missing registration: got %v", err)
	}
	regs, err = r.ListRegistrations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if regs[0].PaymentStatus != model.PaymentCompleted {
		t.Errorf("payment status = %q", regs[0].PaymentStatus)
	}
}

func TestPostgresOrderedLists(t *testing.T) {
	ctx := context.Background()
	r := newPostgresRepo(t)

	for i, order := range []int{3, 1, 2} {
		s := &model.Sponsor{Name: string(rune('A' + i)), Description: "d", ImageURL: "https://example.com/s.png",
			DisplayOrder: order, CreatedAt: base}
		if err := r.CreateSponsor(ctx, s); err != nil {
			t.Fatal(err)
		}
		sp := &model.Speaker{Name: string(rune('A' + i)), Title: "t", Bio: "b", ImageURL: "https://example.com/p.png",
			DisplayOrder: order, CreatedAt: base}
		if err := r.CreateSpeaker(ctx, sp); err != nil {
			t.Fatal(err)
		}
	}

	sponsors, err := r.ListSponsors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	speakers, err := r.ListSpeakers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"B", "C", "A"}
	for i, name := range want {
		if sponsors[i].Name != name || speakers[i].Name != name {
			t.Fatalf("position %d: sponsor %q speaker %q, want %q", i, sponsors[i].Name, speakers[i].Name, name)
		}
	}

	tests := []struct {
		name   string
		delete func(context.Context, int64) error
		list   func() (int, error)
		id     int64
		remain int
	}{
		{"sponsor", r.DeleteSponsor, func() (int, error) { l, err := r.ListSponsors(ctx); return len(l), err }, sponsors[0].ID, 2},
		{"sponsor again", r.DeleteSponsor, func() (int, error) { l, err := r.ListSponsors(ctx); return len(l), err }, sponsors[0].ID, 2},
		{"speaker", r.DeleteSpeaker, func() (int, error) { l, err := r.ListSpeakers(ctx); return len(l), err }, speakers[0].ID, 2},
		{"missing speaker", r.DeleteSpeaker, func() (int, error) { l, err := r.ListSpeakers(ctx); return len(l), err }, 999, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.delete(ctx, tt.id); err != nil {
				t.Fatal(err)
			}
			n, err := tt.list()
			if err != nil {
				t.Fatal(err)
			}
			if n != tt.remain {
				t.Fatalf("expected %d left, got %d", tt.remain, n)
			}
		})
	}
}

func TestPostgresReplySupportTicket(t *testing.T) {
	ctx := context.Background()
	r := newPostgresRepo(t)

	ticket := &model.SupportTicket{Name: "Asha", Email: "asha@example.com", Subject: "Payment",
		Message: "Charged twice", Status: model.TicketOpen, CreatedAt: base}
	if err := r.CreateSupportTicket(ctx, ticket); err != nil {
		t.Fatal(err)
	}

	repliedAt := base.Add(time.Hour)
	closed, err := r.ReplySupportTicket(ctx, ticket.ID, "Refunded", repliedAt)
	if err != nil {
		t.Fatal(err)
	}
	if closed.Status != model.TicketClosed || closed.AdminReply == nil || *closed.AdminReply != "Refunded" {
		t.Fatalf("ticket not closed: %+v", closed)
	}
	if closed.RepliedAt == nil || !closed.RepliedAt.Equal(repliedAt) {
		t.Errorf("replied_at = %v", closed.RepliedAt)
	}

	tests := []struct {
		name string
		id   int64
		want error
	}{
		{"already closed", ticket.ID, repo.ErrTicketClosed},
		{"missing", ticket.ID + 100, repo.ErrTicketNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.ReplySupportTicket(ctx, tt.id, "Again", repliedAt); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}

	tickets, err := r.ListSupportTickets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 1 || *tickets[0].AdminReply != "Refunded" {
		t.Fatalf("list does not show the first reply: %+v", tickets)
	}
}
