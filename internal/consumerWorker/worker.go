package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"tedxcmr/internal/dto"
	"tedxcmr/internal/repo"
	"tedxcmr/pkg/validator"
)

type Consumer interface {
	Consume(handler func([]byte) error) error
}

type PaymentRecorder interface {
	UpdatePaymentStatus(ctx context.Context, registrationID int64, status string) error
}

type Counter interface {
	PaymentUpdated(status string)
}

// Reader applies payment outcomes from the broker to registrations.
type Reader struct {
	src     Consumer
	repo    PaymentRecorder
	metrics Counter
	log     *zerolog.Logger
	done    chan struct{}
	cancel  context.CancelFunc
}

func NewReader(src Consumer, repo PaymentRecorder, metrics Counter, log *zerolog.Logger) *Reader {
	return &Reader{
		src:     src,
		repo:    repo,
		metrics: metrics,
		log:     log,
		done:    make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.log.Info().Msg("payment reader started")

	go func() {
		defer close(r.done)

		if err := r.src.Consume(func(body []byte) error {
			return r.handle(cctx, body)
		}); err != nil {
			r.log.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		r.log.Info().Msg("payment reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// handle returns an error only when redelivery could succeed.
func (r *Reader) handle(ctx context.Context, body []byte) error {
	var msg dto.PaymentMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		r.log.Error().Err(err).Msgf("dropping malformed payment message: %s", string(body))
		return nil
	}
	if err := validator.Validate(ctx, msg); err != nil {
		r.log.Error().Err(err).Msg("dropping invalid payment message")
		return nil
	}

	err := r.repo.UpdatePaymentStatus(ctx, msg.RegistrationID, msg.Status)
	switch {
	case errors.Is(err, repo.ErrRegistrationNotFound):
		r.log.Warn().
			Int64("registration_id", msg.RegistrationID).
			Msg("payment message for unknown registration")
		return nil
	case err != nil:
		r.log.Error().
			Err(err).
			Int64("registration_id", msg.RegistrationID).
			Msg("failed to update payment status")
		return err
	}

	r.metrics.PaymentUpdated(msg.Status)
	r.log.Info().
		Int64("registration_id", msg.RegistrationID).
		Str("status", msg.Status).
		Msg("payment status updated")
	return nil
}
