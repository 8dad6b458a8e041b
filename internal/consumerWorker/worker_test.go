package consumerWorker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tedxcmr/internal/repo"
)

type fakeRecorder struct {
	mu      sync.Mutex
	known   map[int64]string
	failing bool
}

func (f *fakeRecorder) UpdatePaymentStatus(_ context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("connection reset")
	}
	if _, ok := f.known[id]; !ok {
		return repo.ErrRegistrationNotFound
	}
	f.known[id] = status
	return nil
}

func (f *fakeRecorder) status(id int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.known[id]
}

type countingMetrics struct{ updates map[string]int }

func (m *countingMetrics) PaymentUpdated(status string) { m.updates[status]++ }

type chanConsumer struct{ bodies chan []byte }

func (c *chanConsumer) Consume(handler func([]byte) error) error {
	go func() {
		for b := range c.bodies {
			_ = handler(b)
		}
	}()
	return nil
}

func newTestReader(rec *fakeRecorder) (*Reader, *countingMetrics) {
	log := zerolog.Nop()
	m := &countingMetrics{updates: map[string]int{}}
	return NewReader(nil, rec, m, &log), m
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		failing    bool
		wantErr    bool
		wantStatus string
	}{
		{"completed", `{"registration_id":1,"status":"completed"}`, false, false, "completed"},
		{"unknown registration acked", `{"registration_id":99,"status":"completed"}`, false, false, "pending"},
		{"malformed json acked", `{"registration_id":`, false, false, "pending"},
		{"bad status acked", `{"registration_id":1,"status":"refunded"}`, false, false, "pending"},
		{"zero id acked", `{"registration_id":0,"status":"completed"}`, false, false, "pending"},
		{"store failure requeued", `{"registration_id":1,"status":"completed"}`, true, true, "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{known: map[int64]string{1: "pending"}, failing: tt.failing}
			r, m := newTestReader(rec)

			err := r.handle(context.Background(), []byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("handle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := rec.status(1); got != tt.wantStatus {
				t.Errorf("status = %q, want %q", got, tt.wantStatus)
			}
			if tt.wantStatus == "completed" && m.updates["completed"] != 1 {
				t.Errorf("payment metric not counted")
			}
		})
	}
}

func TestReaderStartStop(t *testing.T) {
	rec := &fakeRecorder{known: map[int64]string{7: "pending"}}
	src := &chanConsumer{bodies: make(chan []byte, 1)}
	log := zerolog.Nop()
	r := NewReader(src, rec, &countingMetrics{updates: map[string]int{}}, &log)

	r.Start(context.Background())
	src.bodies <- []byte(`{"registration_id":7,"status":"completed"}`)

	deadline := time.Now().Add(2 * time.Second)
	for rec.status(7) != "completed" {
		if time.Now().After(deadline) {
			t.Fatal("payment message was not applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	r.Stop()
	close(src.bodies)
}
