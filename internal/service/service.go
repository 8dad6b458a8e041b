package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"tedxcmr/internal/dto"
	"tedxcmr/internal/model"
	"tedxcmr/internal/repo"
	"tedxcmr/internal/session"
	"tedxcmr/pkg/validator"
)

const (
	EventRegistrationCreated  = "registration.created"
	EventSupportTicketCreated = "support_ticket.created"
	EventSupportTicketReplied = "support_ticket.replied"
	EventSponsorCreated       = "sponsor.created"
	EventSponsorDeleted       = "sponsor.deleted"
	EventSpeakerCreated       = "speaker.created"
	EventSpeakerDeleted       = "speaker.deleted"

	healthTimeout = 2 * time.Second
)

type Service interface {
	AdminSession(ctx *ginext.Context)
	AdminLogin(ctx *ginext.Context)
	AdminLogout(ctx *ginext.Context)

	ListRegistrations(ctx *ginext.Context)
	CreateRegistration(ctx *ginext.Context)

	ListSponsors(ctx *ginext.Context)
	CreateSponsor(ctx *ginext.Context)
	DeleteSponsor(ctx *ginext.Context)

	ListSupportTickets(ctx *ginext.Context)
	CreateSupportTicket(ctx *ginext.Context)
	ReplySupportTicket(ctx *ginext.Context)

	ListSpeakers(ctx *ginext.Context)
	CreateSpeaker(ctx *ginext.Context)
	DeleteSpeaker(ctx *ginext.Context)

	Health(ctx *ginext.Context)
}

// Publisher sends a domain event body under routingKey.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

type Metrics interface {
	RegistrationCreated()
	TicketReplied()
	AdminLogin(ok bool)
	PublishFailed()
}

type Deps struct {
	Repo       repo.Repository
	Guard      *session.Guard
	Publisher  Publisher
	Metrics    Metrics
	Log        *zerolog.Logger
	PaymentURL string
}

type service struct {
	repo       repo.Repository
	guard      *session.Guard
	pub        Publisher
	metrics    Metrics
	log        *zerolog.Logger
	paymentURL string
	now        func() time.Time
}

func NewService(d Deps) Service {
	return &service{
		repo:       d.Repo,
		guard:      d.Guard,
		pub:        d.Publisher,
		metrics:    d.Metrics,
		log:        d.Log,
		paymentURL: d.PaymentURL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// bind decodes and validates the JSON body into req, writing the 400 itself.
func (s *service) bind(ctx *ginext.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.log.Warn().Int64("limit", tooLarge.Limit).Str("path", ctx.FullPath()).Msg("request body too large")
			dto.PayloadTooLargeError(ctx)
			return false
		}
		s.log.Warn().Err(err).Str("path", ctx.FullPath()).Msg("failed to parse request body")
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return false
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		s.log.Warn().Msgf("validation failed: %v", verr)
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return false
	}
	return true
}

func parseID(ctx *ginext.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		dto.FieldIncorrectError(ctx, "id")
		return 0, false
	}
	return id, true
}

func (s *service) publish(ctx context.Context, eventType string, data any) {
	body, err := json.Marshal(dto.DomainEvent{
		Type:       eventType,
		OccurredAt: s.now(),
		Data:       data,
	})
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event")
		s.metrics.PublishFailed()
		return
	}
	if err := s.pub.Publish(ctx, eventType, body); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
		s.metrics.PublishFailed()
	}
}

func (s *service) AdminSession(ctx *ginext.Context) {
	dto.SuccessResponse(ctx, dto.AdminSessionResponse{
		IsAdmin: s.guard.IsAuthenticated(session.FromContext(ctx)),
	})
}

func (s *service) AdminLogin(ctx *ginext.Context) {
	var req dto.AdminLoginRequest
	if !s.bind(ctx, &req) {
		return
	}

	sess := session.FromContext(ctx)
	ok := s.guard.Authenticate(sess, req.Username, req.Password)
	s.metrics.AdminLogin(ok)
	if !ok {
		s.log.Warn().Str("ip", ctx.ClientIP()).Msg("admin login rejected")
		dto.InvalidCredentialsError(ctx)
		return
	}

	s.guard.WriteCookie(ctx, sess)
	s.log.Info().Str("ip", ctx.ClientIP()).Msg("admin logged in")
	dto.SuccessResponse(ctx, dto.AdminSessionResponse{IsAdmin: true})
}

func (s *service) AdminLogout(ctx *ginext.Context) {
	s.guard.Clear(session.FromContext(ctx))
	s.guard.ExpireCookie(ctx)
	dto.SuccessResponse(ctx, dto.AdminSessionResponse{IsAdmin: false})
}

func (s *service) ListRegistrations(ctx *ginext.Context) {
	regs, err := s.repo.ListRegistrations(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list registrations")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.RegistrationResponse, 0, len(regs))
	for _, r := range regs {
		resp = append(resp, dto.NewRegistrationResponse(r))
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) CreateRegistration(ctx *ginext.Context) {
	var req dto.CreateRegistrationRequest
	if !s.bind(ctx, &req) {
		return
	}

	reg := &model.Registration{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		College:       strings.TrimSpace(req.College),
		Year:          strings.TrimSpace(req.Year),
		Department:    strings.TrimSpace(req.Department),
		PaymentStatus: model.PaymentPending,
		CreatedAt:     s.now(),
	}
	if err := s.repo.CreateRegistration(ctx.Request.Context(), reg); err != nil {
		s.log.Error().Err(err).Msg("failed to create registration in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.metrics.RegistrationCreated()
	s.log.Info().Int64("registration_id", reg.ID).Msg("registration created successfully")

	resp := dto.NewRegistrationResponse(*reg)
	s.publish(ctx.Request.Context(), EventRegistrationCreated, resp)
	resp.PaymentURL = s.paymentURL
	dto.SuccessCreatedResponse(ctx, resp)
}

func (s *service) ListSponsors(ctx *ginext.Context) {
	sponsors, err := s.repo.ListSponsors(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list sponsors")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.SponsorResponse, 0, len(sponsors))
	for _, sp := range sponsors {
		resp = append(resp, dto.NewSponsorResponse(sp))
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) CreateSponsor(ctx *ginext.Context) {
	var req dto.CreateSponsorRequest
	if !s.bind(ctx, &req) {
		return
	}

	sponsor := &model.Sponsor{
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		ImageURL:     strings.TrimSpace(req.ImageURL),
		DisplayOrder: req.DisplayOrder,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateSponsor(ctx.Request.Context(), sponsor); err != nil {
		s.log.Error().Err(err).Msg("failed to create sponsor in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("sponsor_id", sponsor.ID).Msg("sponsor created")
	resp := dto.NewSponsorResponse(*sponsor)
	s.publish(ctx.Request.Context(), EventSponsorCreated, resp)
	dto.SuccessCreatedResponse(ctx, resp)
}

func (s *service) DeleteSponsor(ctx *ginext.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	if err := s.repo.DeleteSponsor(ctx.Request.Context(), id); err != nil {
		s.log.Error().Err(err).Int64("sponsor_id", id).Msg("failed to delete sponsor")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("sponsor_id", id).Msg("sponsor deleted")
	s.publish(ctx.Request.Context(), EventSponsorDeleted, ginext.H{"id": id})
	dto.NoContentResponse(ctx)
}

func (s *service) ListSupportTickets(ctx *ginext.Context) {
	tickets, err := s.repo.ListSupportTickets(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list support tickets")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.SupportTicketResponse, 0, len(tickets))
	for _, t := range tickets {
		resp = append(resp, dto.NewSupportTicketResponse(t))
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) CreateSupportTicket(ctx *ginext.Context) {
	var req dto.CreateSupportTicketRequest
	if !s.bind(ctx, &req) {
		return
	}

	ticket := &model.SupportTicket{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   strings.TrimSpace(req.Message),
		Status:    model.TicketOpen,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateSupportTicket(ctx.Request.Context(), ticket); err != nil {
		s.log.Error().Err(err).Msg("failed to create support ticket in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("ticket_id", ticket.ID).Msg("support ticket created")
	resp := dto.NewSupportTicketResponse(*ticket)
	s.publish(ctx.Request.Context(), EventSupportTicketCreated, resp)
	dto.SuccessCreatedResponse(ctx, resp)
}

func (s *service) ReplySupportTicket(ctx *ginext.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	var req dto.ReplySupportTicketRequest
	if !s.bind(ctx, &req) {
		return
	}

	ticket, err := s.repo.ReplySupportTicket(ctx.Request.Context(), id, strings.TrimSpace(req.Reply), s.now())
	switch {
	case errors.Is(err, repo.ErrTicketNotFound):
		dto.TicketNotFoundError(ctx)
		return
	case errors.Is(err, repo.ErrTicketClosed):
		dto.TicketAlreadyClosedError(ctx)
		return
	case err != nil:
		s.log.Error().Err(err).Int64("ticket_id", id).Msg("failed to reply to support ticket")
		dto.InternalServerError(ctx)
		return
	}

	s.metrics.TicketReplied()
	s.log.Info().Int64("ticket_id", id).Msg("support ticket replied")
	resp := dto.NewSupportTicketResponse(*ticket)
	s.publish(ctx.Request.Context(), EventSupportTicketReplied, resp)
	dto.SuccessResponse(ctx, resp)
}

func (s *service) ListSpeakers(ctx *ginext.Context) {
	speakers, err := s.repo.ListSpeakers(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list speakers")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.SpeakerResponse, 0, len(speakers))
	for _, sp := range speakers {
		resp = append(resp, dto.NewSpeakerResponse(sp))
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) CreateSpeaker(ctx *ginext.Context) {
	var req dto.CreateSpeakerRequest
	if !s.bind(ctx, &req) {
		return
	}

	speaker := &model.Speaker{
		Name:         strings.TrimSpace(req.Name),
		Title:        strings.TrimSpace(req.Title),
		Bio:          strings.TrimSpace(req.Bio),
		ImageURL:     strings.TrimSpace(req.ImageURL),
		DisplayOrder: req.DisplayOrder,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateSpeaker(ctx.Request.Context(), speaker); err != nil {
		s.log.Error().Err(err).Msg("failed to create speaker in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("speaker_id", speaker.ID).Msg("speaker created")
	resp := dto.NewSpeakerResponse(*speaker)
	s.publish(ctx.Request.Context(), EventSpeakerCreated, resp)
	dto.SuccessCreatedResponse(ctx, resp)
}

func (s *service) DeleteSpeaker(ctx *ginext.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	if err := s.repo.DeleteSpeaker(ctx.Request.Context(), id); err != nil {
		s.log.Error().Err(err).Int64("speaker_id", id).Msg("failed to delete speaker")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("speaker_id", id).Msg("speaker deleted")
	s.publish(ctx.Request.Context(), EventSpeakerDeleted, ginext.H{"id": id})
	dto.NoContentResponse(ctx)
}

func (s *service) Health(ctx *ginext.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), healthTimeout)
	defer cancel()

	if err := s.repo.Ping(pingCtx); err != nil {
		s.log.Error().Err(err).Msg("health check failed")
		dto.ServiceUnavailableError(ctx)
		return
	}
	dto.SuccessResponse(ctx, ginext.H{"database": "up"})
}
