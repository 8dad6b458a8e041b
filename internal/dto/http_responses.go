package dto

import (
	"net/http"
	"time"

	"github.com/wb-go/wbf/ginext"

	"tedxcmr/internal/model"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	Unauthorized        = "UNAUTHORIZED"
	InvalidCredentials  = "INVALID_CREDENTIALS"
	TicketNotFound      = "TICKET_NOT_FOUND"
	TicketAlreadyClosed = "TICKET_ALREADY_CLOSED"
	PayloadTooLarge     = "PAYLOAD_TOO_LARGE"
)

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AdminSessionResponse struct {
	IsAdmin bool `json:"is_admin"`
}

type CreateRegistrationRequest struct {
	Name       string `json:"name" validate:"required,notblank,max=255"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Phone      string `json:"phone" validate:"required,notblank,max=32"`
	College    string `json:"college" validate:"required,notblank,max=255"`
	Year       string `json:"year" validate:"required,notblank,max=32"`
	Department string `json:"department" validate:"required,notblank,max=255"`
}

type RegistrationResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	College       string    `json:"college"`
	Year          string    `json:"year"`
	Department    string    `json:"department"`
	PaymentStatus string    `json:"payment_status"`
	PaymentURL    string    `json:"payment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateSponsorRequest struct {
	Name         string `json:"name" validate:"required,notblank,max=255"`
	Description  string `json:"description" validate:"required,notblank,max=4000"`
	ImageURL     string `json:"image_url" validate:"required,imageurl"`
	DisplayOrder int    `json:"display_order" validate:"gte=0,max=10000"`
}

type SponsorResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateSupportTicketRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"required,notblank,max=255"`
	Message string `json:"message" validate:"required,notblank,max=4000"`
}

type ReplySupportTicketRequest struct {
	Reply string `json:"reply" validate:"required,notblank,max=4000"`
}

type SupportTicketResponse struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Subject    string     `json:"subject"`
	Message    string     `json:"message"`
	Status     string     `json:"status"`
	AdminReply *string    `json:"admin_reply"`
	CreatedAt  time.Time  `json:"created_at"`
	RepliedAt  *time.Time `json:"replied_at"`
}

type CreateSpeakerRequest struct {
	Name         string `json:"name" validate:"required,notblank,max=255"`
	Title        string `json:"title" validate:"required,notblank,max=255"`
	Bio          string `json:"bio" validate:"required,notblank,max=4000"`
	ImageURL     string `json:"image_url" validate:"required,imageurl"`
	DisplayOrder int    `json:"display_order" validate:"gte=0,max=10000"`
}

type SpeakerResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Title        string    `json:"title"`
	Bio          string    `json:"bio"`
	ImageURL     string    `json:"image_url"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// PaymentMessage is what the hosted payment page reports back on the broker.
type PaymentMessage struct {
	RegistrationID int64  `json:"registration_id" validate:"gt=0"`
	Status         string `json:"status" validate:"paymentstatus"`
}

// DomainEvent is the envelope published for every state change.
type DomainEvent struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func NewRegistrationResponse(r model.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		College:       r.College,
		Year:          r.Year,
		Department:    r.Department,
		PaymentStatus: r.PaymentStatus,
		CreatedAt:     r.CreatedAt,
	}
}

func NewSponsorResponse(s model.Sponsor) SponsorResponse {
	return SponsorResponse{
		ID:           s.ID,
		Name:         s.Name,
		Description:  s.Description,
		ImageURL:     s.ImageURL,
		DisplayOrder: s.DisplayOrder,
		CreatedAt:    s.CreatedAt,
	}
}

func NewSupportTicketResponse(t model.SupportTicket) SupportTicketResponse {
	return SupportTicketResponse{
		ID:         t.ID,
		Name:       t.Name,
		Email:      t.Email,
		Subject:    t.Subject,
		Message:    t.Message,
		Status:     t.Status,
		AdminReply: t.AdminReply,
		CreatedAt:  t.CreatedAt,
		RepliedAt:  t.RepliedAt,
	}
}

func NewSpeakerResponse(s model.Speaker) SpeakerResponse {
	return SpeakerResponse{
		ID:           s.ID,
		Name:         s.Name,
		Title:        s.Title,
		Bio:          s.Bio,
		ImageURL:     s.ImageURL,
		DisplayOrder: s.DisplayOrder,
		CreatedAt:    s.CreatedAt,
	}
}

func errorResponse(c *ginext.Context, status int, code, desc string) {
	c.AbortWithStatusJSON(status, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func BadResponseError(c *ginext.Context, code, desc string) {
	errorResponse(c, http.StatusBadRequest, code, desc)
}

func InternalServerError(c *ginext.Context) {
	errorResponse(c, http.StatusInternalServerError, ServiceUnavailable, InternalError)
}

func ServiceUnavailableError(c *ginext.Context) {
	errorResponse(c, http.StatusServiceUnavailable, ServiceUnavailable, InternalError)
}

func UnauthorizedError(c *ginext.Context) {
	errorResponse(c, http.StatusUnauthorized, Unauthorized, "Admin access required")
}

func InvalidCredentialsError(c *ginext.Context) {
	errorResponse(c, http.StatusUnauthorized, InvalidCredentials, "Invalid credentials")
}

func FieldBadFormatError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldBadFormat, "Field '"+fieldName+"' has bad format")
}

func FieldIncorrectError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldIncorrect, "Field '"+fieldName+"' is incorrect")
}

func TicketNotFoundError(c *ginext.Context) {
	BadResponseError(c, TicketNotFound, "Support ticket not found")
}

func TicketAlreadyClosedError(c *ginext.Context) {
	errorResponse(c, http.StatusConflict, TicketAlreadyClosed, "Support ticket has already been answered")
}

func PayloadTooLargeError(c *ginext.Context) {
	errorResponse(c, http.StatusRequestEntityTooLarge, PayloadTooLarge, "Request body is too large")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Status: "ok",
		Data:   data,
	})
}

func NoContentResponse(c *ginext.Context) {
	c.Status(http.StatusNoContent)
}
