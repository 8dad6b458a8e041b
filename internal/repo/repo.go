package repo

import (
	"context"
	"errors"
	"time"

	"tedxcmr/internal/model"
)

var (
	ErrTicketNotFound       = errors.New("support ticket not found")
	ErrTicketClosed         = errors.New("support ticket already closed")
	ErrRegistrationNotFound = errors.New("registration not found")
)

// Repository is the record store. Every method is a single-row or single-scan
// statement; Create* fill in the generated id.
type Repository interface {
	Ping(ctx context.Context) error
	Close() error

	CreateRegistration(ctx context.Context, r *model.Registration) error
	ListRegistrations(ctx context.Context) ([]model.Registration, error)
	UpdatePaymentStatus(ctx context.Context, registrationID int64, status string) error

	CreateSponsor(ctx context.Context, s *model.Sponsor) error
	ListSponsors(ctx context.Context) ([]model.Sponsor, error)
	DeleteSponsor(ctx context.Context, id int64) error

	CreateSupportTicket(ctx context.Context, t *model.SupportTicket) error
	ListSupportTickets(ctx context.Context) ([]model.SupportTicket, error)
	// ReplySupportTicket closes an open ticket. It returns ErrTicketNotFound for an
	// unknown id and ErrTicketClosed when the ticket was already answered.
	ReplySupportTicket(ctx context.Context, id int64, reply string, repliedAt time.Time) (*model.SupportTicket, error)

	CreateSpeaker(ctx context.Context, s *model.Speaker) error
	ListSpeakers(ctx context.Context) ([]model.Speaker, error)
	DeleteSpeaker(ctx context.Context, id int64) error
}
