// Package monitor periodically probes MongoDB and publishes the result as
// metrics. It never opens a connection: until the first request connects,
// the probe only reports the database as down.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/giftlink/backend/internal/metrics"
)

// DefaultSchedule runs the probe once a minute
const DefaultSchedule = "@every 1m"

// Pinger checks an already established connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counter reports the gift collection size
type Counter interface {
	CountGifts(ctx context.Context) (int64, error)
}

// Probe runs the health check on a cron schedule
type Probe struct {
	pinger   Pinger
	counter  Counter
	metrics  *metrics.Metrics
	schedule string
	timeout  time.Duration

	cron        *cron.Cron
	cronEntryID cron.EntryID
	mu          sync.Mutex
	running     bool
}

// New creates a probe. An empty schedule uses DefaultSchedule.
func New(pinger Pinger, counter Counter, m *metrics.Metrics, schedule string) *Probe {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Probe{
		pinger:   pinger,
		counter:  counter,
		metrics:  m,
		schedule: schedule,
		timeout:  5 * time.Second,
		cron:     cron.New(),
	}
}

// Start registers the schedule and starts the scheduler
func (p *Probe) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	id, err := p.cron.AddFunc(p.schedule, p.scheduledRun)
	if err != nil {
		return err
	}
	p.cronEntryID = id
	p.cron.Start()
	p.running = true

	log.Info().Str("schedule", p.schedule).Msg("Health probe started")
	return nil
}

// Stop stops the scheduler and waits for a running probe to finish
func (p *Probe) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	ctx := p.cron.Stop()
	<-ctx.Done()
	p.cron.Remove(p.cronEntryID)
	p.cronEntryID = 0
	p.running = false

	log.Info().Msg("Health probe stopped")
}

// NextRun returns when the probe fires next, zero if not running
func (p *Probe) NextRun() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cronEntryID == 0 {
		return time.Time{}
	}
	return p.cron.Entry(p.cronEntryID).Next
}

func (p *Probe) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	p.RunOnce(ctx)
}

// RunOnce pings the database and, when reachable, refreshes the gift count.
// It reports whether the database was reachable.
func (p *Probe) RunOnce(ctx context.Context) bool {
	if err := p.pinger.Ping(ctx); err != nil {
		log.Debug().Err(err).Msg("Health probe: MongoDB not reachable")
		p.metrics.MongoUp.Set(0)
		return false
	}
	p.metrics.MongoUp.Set(1)

	n, err := p.counter.CountGifts(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Health probe: failed to count gifts")
		return true
	}
	p.metrics.GiftsTotal.Set(float64(n))

	log.Trace().Int64("gifts", n).Msg("Health probe completed")
	return true
}
