package model

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"

	TicketOpen   = "open"
	TicketClosed = "closed"
)

type Registration struct {
	bun.BaseModel `bun:"table:registrations"`

	ID            int64     `db:"id" bun:"id,pk,autoincrement" json:"id"`
	Name          string    `db:"name" bun:"name,notnull" json:"name"`
	Email         string    `db:"email" bun:"email,notnull" json:"email"`
	Phone         string    `db:"phone" bun:"phone,notnull" json:"phone"`
	College       string    `db:"college" bun:"college,notnull" json:"college"`
	Year          string    `db:"year" bun:"year,notnull" json:"year"`
	Department    string    `db:"department" bun:"department,notnull" json:"department"`
	PaymentStatus string    `db:"payment_status" bun:"payment_status,notnull" json:"payment_status"`
	CreatedAt     time.Time `db:"created_at" bun:"created_at,notnull" json:"created_at"`
}

type Sponsor struct {
	bun.BaseModel `bun:"table:sponsors"`

	ID           int64     `db:"id" bun:"id,pk,autoincrement" json:"id"`
	Name         string    `db:"name" bun:"name,notnull" json:"name"`
	Description  string    `db:"description" bun:"description,notnull" json:"description"`
	ImageURL     string    `db:"image_url" bun:"image_url,notnull" json:"image_url"`
	DisplayOrder int       `db:"display_order" bun:"display_order,notnull" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" bun:"created_at,notnull" json:"created_at"`
}

// SupportTicket is closed exactly once, when AdminReply and RepliedAt are set.
type SupportTicket struct {
	bun.BaseModel `bun:"table:support_tickets"`

	ID         int64      `db:"id" bun:"id,pk,autoincrement" json:"id"`
	Name       string     `db:"name" bun:"name,notnull" json:"name"`
	Email      string     `db:"email" bun:"email,notnull" json:"email"`
	Subject    string     `db:"subject" bun:"subject,notnull" json:"subject"`
	Message    string     `db:"message" bun:"message,notnull" json:"message"`
	Status     string     `db:"status" bun:"status,notnull" json:"status"`
	AdminReply *string    `db:"admin_reply" bun:"admin_reply" json:"admin_reply"`
	CreatedAt  time.Time  `db:"created_at" bun:"created_at,notnull" json:"created_at"`
	RepliedAt  *time.Time `db:"replied_at" bun:"replied_at" json:"replied_at"`
}

type Speaker struct {
	bun.BaseModel `bun:"table:speakers"`

	ID           int64     `db:"id" bun:"id,pk,autoincrement" json:"id"`
	Name         string    `db:"name" bun:"name,notnull" json:"name"`
	Title        string    `db:"title" bun:"title,notnull" json:"title"`
	Bio          string    `db:"bio" bun:"bio,notnull" json:"bio"`
	ImageURL     string    `db:"image_url" bun:"image_url,notnull" json:"image_url"`
	DisplayOrder int       `db:"display_order" bun:"display_order,notnull" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" bun:"created_at,notnull" json:"created_at"`
}
