// Package scheduler runs the periodic expiry sweep that feeds the
// notification dispatcher.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"pharmatrack/m/internal/notify"
	"pharmatrack/m/internal/store"
)

type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// Start registers the expiry sweep under the given cron spec and starts the
// scheduler. The sweep queries medicines expiring within days and raises one
// expiry_warning event when any are found.
func Start(st *store.Store, events *notify.Dispatcher, log zerolog.Logger, spec string, days int) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		Sweep(ctx, st, events, log, days)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Info().Str("spec", spec).Int("days", days).Msg("expiry sweep scheduled")
	return &Scheduler{cron: c, log: log}, nil
}

// Sweep runs one expiry check. Exposed so main and tests can trigger it
// outside the cron schedule.
func Sweep(ctx context.Context, st *store.Store, events *notify.Dispatcher, log zerolog.Logger, days int) {
	medicines, err := st.ExpiringMedicines(ctx, days)
	if err != nil {
		log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if len(medicines) == 0 {
		return
	}
	events.Emit(notify.Event{
		Kind:          notify.KindExpiryWarning,
		Medicines:     medicines,
		DaysThreshold: days,
	})
	log.Info().Int("medicines", len(medicines)).Int("days", days).Msg("expiry warning raised")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
