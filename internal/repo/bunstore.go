package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"tedxcmr/internal/model"
)

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*BunRepository)(nil)
)

// BunRepository keeps the four tables in SQLite. It backs local runs and tests.
type BunRepository struct {
	db  *bun.DB
	log *zerolog.Logger
}

// OpenSQLite opens path (":memory:" works) with a single connection, since
// every in-memory connection would otherwise see its own empty database.
func OpenSQLite(path string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func NewBunRepository(db *bun.DB, log *zerolog.Logger) *BunRepository {
	return &BunRepository{db: db, log: log}
}

func (r *BunRepository) CreateSchema(ctx context.Context) error {
	if err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, m := range []interface{}{
			(*model.Registration)(nil),
			(*model.Sponsor)(nil),
			(*model.SupportTicket)(nil),
			(*model.Speaker)(nil),
		} {
			if _, err := tx.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("CreateSchema: %w", err)
	}
	r.log.Info().Msg("sqlite schema ready")
	return nil
}

func (r *BunRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *BunRepository) Close() error {
	return r.db.Close()
}

func (r *BunRepository) CreateRegistration(ctx context.Context, reg *model.Registration) error {
	if _, err := r.db.NewInsert().Model(reg).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

func (r *BunRepository) ListRegistrations(ctx context.Context) ([]model.Registration, error) {
	regs := make([]model.Registration, 0)
	if err := r.db.NewSelect().
		Model(&regs).
		Order("created_at DESC", "id DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	return regs, nil
}

func (r *BunRepository) UpdatePaymentStatus(ctx context.Context, registrationID int64, status string) error {
	res, err := r.db.NewUpdate().
		Model((*model.Registration)(nil)).
		Set("payment_status = ?", status).
		Where("id = ?", registrationID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

func (r *BunRepository) CreateSponsor(ctx context.Context, s *model.Sponsor) error {
	if _, err := r.db.NewInsert().Model(s).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert sponsor: %w", err)
	}
	return nil
}

func (r *BunRepository) ListSponsors(ctx context.Context) ([]model.Sponsor, error) {
	sponsors := make([]model.Sponsor, 0)
	if err := r.db.NewSelect().
		Model(&sponsors).
		Order("display_order ASC", "id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get sponsors: %w", err)
	}
	return sponsors, nil
}

func (r *BunRepository) DeleteSponsor(ctx context.Context, id int64) error {
	if _, err := r.db.NewDelete().
		Model((*model.Sponsor)(nil)).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete sponsor: %w", err)
	}
	return nil
}

func (r *BunRepository) CreateSupportTicket(ctx context.Context, t *model.SupportTicket) error {
	if _, err := r.db.NewInsert().Model(t).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert support ticket: %w", err)
	}
	return nil
}

func (r *BunRepository) ListSupportTickets(ctx context.Context) ([]model.SupportTicket, error) {
	tickets := make([]model.SupportTicket, 0)
	if err := r.db.NewSelect().
		Model(&tickets).
		Order("created_at DESC", "id DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get support tickets: %w", err)
	}
	return tickets, nil
}

func (r *BunRepository) ReplySupportTicket(ctx context.Context, id int64, reply string, repliedAt time.Time) (*model.SupportTicket, error) {
	ticket := new(model.SupportTicket)
	res, err := r.db.NewUpdate().
		Model(ticket).
		Set("admin_reply = ?", reply).
		Set("status = ?", model.TicketClosed).
		Set("replied_at = ?", repliedAt).
		Where("id = ?", id).
		Where("status = ?", model.TicketOpen).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reply to support ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return ticket, nil
	}

	exists, err := r.db.NewSelect().
		Model((*model.SupportTicket)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	switch {
	case err != nil:
		return nil, fmt.Errorf("failed to look up support ticket: %w", err)
	case !exists:
		return nil, ErrTicketNotFound
	default:
		return nil, ErrTicketClosed
	}
}

func (r *BunRepository) CreateSpeaker(ctx context.Context, s *model.Speaker) error {
	if _, err := r.db.NewInsert().Model(s).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert speaker: %w", err)
	}
	return nil
}

func (r *BunRepository) ListSpeakers(ctx context.Context) ([]model.Speaker, error) {
	speakers := make([]model.Speaker, 0)
	if err := r.db.NewSelect().
		Model(&speakers).
		Order("display_order ASC", "id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get speakers: %w", err)
	}
	return speakers, nil
}

func (r *BunRepository) DeleteSpeaker(ctx context.Context, id int64) error {
	if _, err := r.db.NewDelete().
		Model((*model.Speaker)(nil)).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete speaker: %w", err)
	}
	return nil
}
