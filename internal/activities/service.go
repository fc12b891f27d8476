// internal/activities/service.go
package activities

import (
	"context"
	"fmt"
	"time"

	apperrors "activities-service/internal/common/errors"
	"activities-service/internal/common/logger"
	"activities-service/internal/common/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// EventSink receives participant events after a successful mutation.
type EventSink interface {
	Name() string
	Record(ctx context.Context, event ParticipantEvent) error
}

// Service implements the list, signup and unregister operations over a Store.
type Service struct {
	store  Store
	sinks  []EventSink
	logger logger.Logger
	now    func() time.Time
}

func NewService(store Store, log logger.Logger, sinks ...EventSink) *Service {
	return &Service{
		store:  store,
		sinks:  sinks,
		logger: log.WithFields(map[string]interface{}{"component": "activities"}),
		now:    time.Now,
	}
}

// List returns a snapshot of the whole registry.
func (s *Service) List(ctx context.Context) (Registry, error) {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues(string(apperrors.OpList)))
	defer timer.ObserveDuration()

	registry, err := s.store.List(ctx)
	if err != nil {
		s.recordFailure(apperrors.OpList, err)
		return nil, err
	}
	return registry, nil
}

// Signup adds email to the participants of activity.
func (s *Service) Signup(ctx context.Context, activity, email string) (*Confirmation, error) {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues(string(apperrors.OpSignup)))
	defer timer.ObserveDuration()

	if err := s.store.Signup(ctx, activity, email); err != nil {
		s.recordFailure(apperrors.OpSignup, err)
		return nil, err
	}

	metrics.SignupsTotal.WithLabelValues(activity).Inc()
	s.logger.Info("participant signed up", map[string]interface{}{
		"activity": activity,
		"email":    email,
	})
	s.emit(ctx, EventSignedUp, activity, email)

	return &Confirmation{Message: fmt.Sprintf("Signed up %s for %s", email, activity)}, nil
}

// Unregister removes email from the participants of activity.
func (s *Service) Unregister(ctx context.Context, activity, email string) (*Confirmation, error) {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues(string(apperrors.OpUnregister)))
	defer timer.ObserveDuration()

	if err := s.store.Unregister(ctx, activity, email); err != nil {
		s.recordFailure(apperrors.OpUnregister, err)
		return nil, err
	}

	metrics.UnregistrationsTotal.WithLabelValues(activity).Inc()
	s.logger.Info("participant unregistered", map[string]interface{}{
		"activity": activity,
		"email":    email,
	})
	s.emit(ctx, EventUnregistered, activity, email)

	return &Confirmation{Message: fmt.Sprintf("Unregistered %s from %s", email, activity)}, nil
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// emit hands the event to every sink. Sink failures never fail the request.
func (s *Service) emit(ctx context.Context, eventType EventType, activity, email string) {
	if len(s.sinks) == 0 {
		return
	}

	event := ParticipantEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Activity:   activity,
		Email:      email,
		OccurredAt: s.now().UTC(),
	}

	// the mutation already happened; a client hanging up must not cancel delivery
	ctx = context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		if err := sink.Record(ctx, event); err != nil {
			metrics.EventSinkFailures.WithLabelValues(sink.Name()).Inc()
			s.logger.Warn("event sink failed", map[string]interface{}{
				"sink":      sink.Name(),
				"eventId":   event.ID,
				"eventType": string(event.Type),
				"activity":  activity,
				"error":     err,
			})
		}
	}
}

func (s *Service) recordFailure(op apperrors.Operation, err error) {
	code := apperrors.ErrCodeInternal
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		code = stdErr.Code
	}
	metrics.OperationsFailed.WithLabelValues(string(op), string(code)).Inc()
}
