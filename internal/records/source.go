// Package records fetches raw appointment and patient records from the
// configured backend and writes sparse appointment updates back to it.
// Records are returned untouched; callers normalize them.
package records

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"hospital-records-server/internal/metrics"
	"hospital-records-server/internal/normalize"
)

var (
	// ErrNotFound is returned when the backend has no record for an id.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable is returned when the backend cannot be reached or is
	// failing.
	ErrUnavailable = errors.New("record source unavailable")
	// ErrRejected is returned when the backend refuses an update payload.
	ErrRejected = errors.New("record update rejected")
)

// Source is the backend the dashboards read from.
type Source interface {
	FetchAppointments(ctx context.Context) ([]normalize.Raw, error)
	FetchAppointmentByID(ctx context.Context, id string) (normalize.Raw, error)
	FetchPatients(ctx context.Context) ([]normalize.Raw, error)
	FetchPatientByID(ctx context.Context, id string) (normalize.Raw, error)
	UpdateAppointment(ctx context.Context, id string, payload map[string]any) error
}

// Instrumented decorates a Source with metrics and error logging.
type Instrumented struct {
	next    Source
	name    string
	metrics *metrics.Collector
	log     *zap.Logger
}

// NewInstrumented wraps next. name labels the metrics (mysql, mongo, http).
func NewInstrumented(next Source, name string, m *metrics.Collector, log *zap.Logger) *Instrumented {
	return &Instrumented{next: next, name: name, metrics: m, log: log}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, context.Canceled):
		outcome = "canceled"
	default:
		outcome = "error"
		s.log.Warn("record source call failed",
			zap.String("source", s.name),
			zap.String("operation", op),
			zap.Error(err),
		)
	}
	s.metrics.SourceRequestsTotal.WithLabelValues(s.name, op, outcome).Inc()
	s.metrics.SourceRequestDuration.WithLabelValues(s.name, op).Observe(time.Since(start).Seconds())
}

func (s *Instrumented) FetchAppointments(ctx context.Context) ([]normalize.Raw, error) {
	start := time.Now()
	out, err := s.next.FetchAppointments(ctx)
	s.observe("fetch_appointments", start, err)
	return out, err
}

func (s *Instrumented) FetchAppointmentByID(ctx context.Context, id string) (normalize.Raw, error) {
	start := time.Now()
	out, err := s.next.FetchAppointmentByID(ctx, id)
	s.observe("fetch_appointment", start, err)
	return out, err
}

func (s *Instrumented) FetchPatients(ctx context.Context) ([]normalize.Raw, error) {
	start := time.Now()
	out, err := s.next.FetchPatients(ctx)
	s.observe("fetch_patients", start, err)
	return out, err
}

func (s *Instrumented) FetchPatientByID(ctx context.Context, id string) (normalize.Raw, error) {
	start := time.Now()
	out, err := s.next.FetchPatientByID(ctx, id)
	s.observe("fetch_patient", start, err)
	return out, err
}

func (s *Instrumented) UpdateAppointment(ctx context.Context, id string, payload map[string]any) error {
	start := time.Now()
	err := s.next.UpdateAppointment(ctx, id, payload)
	s.observe("update_appointment", start, err)
	return err
}
