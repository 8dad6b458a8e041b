package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tedxcmr/internal/model"
	"tedxcmr/internal/repo"
	"tedxcmr/internal/session"
)

var errStore = errors.New("store is down")

// brokenRepo fails every call it implements; the embedded nil interface
// panics on anything a test did not expect to reach the store.
type brokenRepo struct {
	repo.Repository
	calls int
}

func (b *brokenRepo) Ping(context.Context) error { return errStore }

func (b *brokenRepo) ListSpeakers(context.Context) ([]model.Speaker, error) {
	b.calls++
	return nil, errStore
}

func (b *brokenRepo) CreateSpeaker(context.Context, *model.Speaker) error {
	b.calls++
	return errStore
}

func (b *brokenRepo) ReplySupportTicket(context.Context, int64, string, time.Time) (*model.SupportTicket, error) {
	b.calls++
	return nil, errStore
}

type nopMetrics struct{}

func (nopMetrics) RegistrationCreated() {}
func (nopMetrics) TicketReplied()       {}
func (nopMetrics) AdminLogin(bool)      {}
func (nopMetrics) PublishFailed()       {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, []byte) error { return nil }

type allowAll struct{}

func (allowAll) Verify(string, string) bool { return true }

func newTestRouter(t *testing.T, r repo.Repository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	guard := session.NewGuard(session.NewStore(time.Hour), allowAll{}, session.CookieConfig{Name: "sid"}, &log)
	svc := NewService(Deps{
		Repo:      r,
		Guard:     guard,
		Publisher: nopPublisher{},
		Metrics:   nopMetrics{},
		Log:       &log,
	})

	e := gin.New()
	e.Use(guard.Middleware())
	e.GET("/healthz", svc.Health)
	e.GET("/speakers", svc.ListSpeakers)
	e.POST("/speakers", svc.CreateSpeaker)
	e.POST("/tickets/:id/reply", svc.ReplySupportTicket)
	return e
}

func TestStoreErrorsAreHidden(t *testing.T) {
	r := &brokenRepo{}
	e := newTestRouter(t, r)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusServiceUnavailable},
		{"list", http.MethodGet, "/speakers", "", http.StatusInternalServerError},
		{"create", http.MethodPost, "/speakers",
			`{"name":"A","title":"B","bio":"C","image_url":"https://example.com/a.png"}`, http.StatusInternalServerError},
		{"reply", http.MethodPost, "/tickets/3/reply", `{"reply":"ok"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			e.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			if strings.Contains(w.Body.String(), errStore.Error()) {
				t.Errorf("store error leaked to client: %s", w.Body.String())
			}
		})
	}
}

func TestValidationRunsBeforeStore(t *testing.T) {
	r := &brokenRepo{}
	e := newTestRouter(t, r)

	for _, tc := range []struct{ path, body string }{
		{"/speakers", `{"name":"A","title":"B","bio":"C","image_url":"not a url"}`},
		{"/speakers", `{"name":"A","title":"B","bio":"C","image_url":"https://example.com/a.png","display_order":-1}`},
		{"/tickets/abc/reply", `{"reply":"ok"}`},
		{"/tickets/0/reply", `{"reply":"ok"}`},
		{"/tickets/3/reply", `{"reply":""}`},
	} {
		req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		e.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d", tc.path, tc.body, w.Code)
		}
	}
	if r.calls != 0 {
		t.Fatalf("invalid input reached the store %d times", r.calls)
	}
}
