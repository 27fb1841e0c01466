package reminder

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type DefaultMarker interface {
	MarkDefaults(ctx context.Context) (int, error)
}

type ReservationReleaser interface {
	ReleaseStale(ctx context.Context, ttl time.Duration) (int, error)
}

type SweepResult struct {
	Due       []Due `json:"due"`
	Defaulted int   `json:"defaulted"`
	Released  int   `json:"released"`
}

// Sweeper runs one maintenance pass: it lists due reminders, defaults
// overdue loans and frees subsidy reservations left open too long.
type Sweeper struct {
	reminders      *Usecase
	defaults       DefaultMarker
	reservations   ReservationReleaser
	reservationTTL time.Duration
	logger         *slog.Logger
}

func NewSweeper(reminders *Usecase, defaults DefaultMarker, reservations ReservationReleaser, reservationTTL time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		reminders:      reminders,
		defaults:       defaults,
		reservations:   reservations,
		reservationTTL: reservationTTL,
		logger:         logger,
	}
}

// Sweep runs every step even when an earlier one fails; the errors are joined.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	res := &SweepResult{}
	var errs []error

	due, err := s.reminders.DueForReminder(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}
	res.Due = due

	if s.defaults != nil {
		n, err := s.defaults.MarkDefaults(ctx)
		res.Defaulted = n
		if err != nil {
			errs = append(errs, err)
		}
	}
	if s.reservations != nil && s.reservationTTL > 0 {
		n, err := s.reservations.ReleaseStale(ctx, s.reservationTTL)
		res.Released = n
		if err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Info("sweep finished",
		"due_reminders", len(res.Due), "defaulted", res.Defaulted, "released_reservations", res.Released)
	return res, errors.Join(errs...)
}
