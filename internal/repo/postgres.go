package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"tedxcmr/internal/model"
)

// PostgresRepository reads and writes through the primary only, so an admin
// sees a sponsor or reply in the list right after creating it.
type PostgresRepository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (*PostgresRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &PostgresRepository{db: db, log: log}, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Master.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	for _, s := range r.db.Slaves {
		_ = s.Close()
	}
	return r.db.Master.Close()
}

func (r *PostgresRepository) MigrateUp(migrationsDir string) error {
	return r.runMigrations(migrationsDir, "*.up.sql", false)
}

func (r *PostgresRepository) MigrateDown(migrationsDir string) error {
	return r.runMigrations(migrationsDir, "*.down.sql", true)
}

func (r *PostgresRepository) runMigrations(dir, pattern string, reverse bool) error {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	sort.Strings(files)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
		r.log.Debug().Str("file", filepath.Base(file)).Msg("migration applied")
	}

	r.log.Info().Int("files", len(files)).Msgf("Migrations %s applied from %s", pattern, dir)
	return nil
}

func (r *PostgresRepository) CreateRegistration(ctx context.Context, reg *model.Registration) error {
	query := `
		INSERT INTO registrations (name, email, phone, college, year, department, payment_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.Master.QueryRowContext(ctx, query,
		reg.Name, reg.Email, reg.Phone, reg.College, reg.Year, reg.Department, reg.PaymentStatus, reg.CreatedAt,
	).Scan(&reg.ID)
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListRegistrations(ctx context.Context) ([]model.Registration, error) {
	query := `
		SELECT id, name, email, phone, college, year, department, payment_status, created_at
		FROM registrations
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Master.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]model.Registration, 0)
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(
			&reg.ID,
			&reg.Name,
			&reg.Email,
			&reg.Phone,
			&reg.College,
			&reg.Year,
			&reg.Department,
			&reg.PaymentStatus,
			&reg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}
	return regs, nil
}

func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, registrationID int64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET payment_status = $1 WHERE id = $2`,
		status, registrationID,
	)
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

func (r *PostgresRepository) CreateSponsor(ctx context.Context, s *model.Sponsor) error {
	query := `
		INSERT INTO sponsors (name, description, image_url, display_order, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.Master.QueryRowContext(ctx, query,
		s.Name, s.Description, s.ImageURL, s.DisplayOrder, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to insert sponsor: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListSponsors(ctx context.Context) ([]model.Sponsor, error) {
	query := `
		SELECT id, name, description, image_url, display_order, created_at
		FROM sponsors
		ORDER BY display_order ASC, id ASC
	`
	rows, err := r.db.Master.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get sponsors: %w", err)
	}
	defer rows.Close()

	sponsors := make([]model.Sponsor, 0)
	for rows.Next() {
		var s model.Sponsor
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.ImageURL, &s.DisplayOrder, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sponsor: %w", err)
		}
		sponsors = append(sponsors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sponsors: %w", err)
	}
	return sponsors, nil
}

func (r *PostgresRepository) DeleteSponsor(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sponsors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete sponsor: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateSupportTicket(ctx context.Context, t *model.SupportTicket) error {
	query := `
		INSERT INTO support_tickets (name, email, subject, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.Master.QueryRowContext(ctx, query,
		t.Name, t.Email, t.Subject, t.Message, t.Status, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert support ticket: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListSupportTickets(ctx context.Context) ([]model.SupportTicket, error) {
	query := `
		SELECT id, name, email, subject, message, status, admin_reply, created_at, replied_at
		FROM support_tickets
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Master.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get support tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]model.SupportTicket, 0)
	for rows.Next() {
		var t model.SupportTicket
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Email,
			&t.Subject,
			&t.Message,
			&t.Status,
			&t.AdminReply,
			&t.CreatedAt,
			&t.RepliedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan support ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate support tickets: %w", err)
	}
	return tickets, nil
}

func (r *PostgresRepository) ReplySupportTicket(ctx context.Context, id int64, reply string, repliedAt time.Time) (*model.SupportTicket, error) {
	query := `
		UPDATE support_tickets
		SET admin_reply = $1, status = $2, replied_at = $3
		WHERE id = $4 AND status = $5
		RETURNING id, name, email, subject, message, status, admin_reply, created_at, replied_at
	`
	var t model.SupportTicket
	err := r.db.Master.QueryRowContext(ctx, query,
		reply, model.TicketClosed, repliedAt, id, model.TicketOpen,
	).Scan(
		&t.ID,
		&t.Name,
		&t.Email,
		&t.Subject,
		&t.Message,
		&t.Status,
		&t.AdminReply,
		&t.CreatedAt,
		&t.RepliedAt,
	)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to reply to support ticket: %w", err)
	}

	var status string
	err = r.db.Master.QueryRowContext(ctx, `SELECT status FROM support_tickets WHERE id = $1`, id).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrTicketNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to look up support ticket: %w", err)
	default:
		return nil, ErrTicketClosed
	}
}

func (r *PostgresRepository) CreateSpeaker(ctx context.Context, s *model.Speaker) error {
	query := `
		INSERT INTO speakers (name, title, bio, image_url, display_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.Master.QueryRowContext(ctx, query,
		s.Name, s.Title, s.Bio, s.ImageURL, s.DisplayOrder, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to insert speaker: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListSpeakers(ctx context.Context) ([]model.Speaker, error) {
	query := `
		SELECT id, name, title, bio, image_url, display_order, created_at
		FROM speakers
		ORDER BY display_order ASC, id ASC
	`
	rows, err := r.db.Master.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get speakers: %w", err)
	}
	defer rows.Close()

	speakers := make([]model.Speaker, 0)
	for rows.Next() {
		var s model.Speaker
		if err := rows.Scan(&s.ID, &s.Name, &s.Title, &s.Bio, &s.ImageURL, &s.DisplayOrder, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan speaker: %w", err)
		}
		speakers = append(speakers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate speakers: %w", err)
	}
	return speakers, nil
}

func (r *PostgresRepository) DeleteSpeaker(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM speakers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete speaker: %w", err)
	}
	return nil
}
