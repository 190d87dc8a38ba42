package game

import (
	"context"
	"time"
)

// DefaultPollInterval is the turn-end safety-net cadence.
const DefaultPollInterval = 750 * time.Millisecond

// Poller is the background turn-end timer. It runs on its own
// goroutine, deliberately isolated from the session loop so nothing
// that throttles the foreground can throttle it, and it communicates
// purely by message passing: start and stop in, ticks out. It never
// touches shared state.
type Poller struct {
	interval time.Duration
	start    chan struct{}
	stop     chan struct{}
	ticks    chan time.Time
}

func NewPoller(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		interval: interval,
		start:    make(chan struct{}, 1),
		stop:     make(chan struct{}, 1),
		ticks:    make(chan time.Time, 1),
	}
}

// Ticks delivers at most one pending tick; a slow consumer coalesces
// ticks instead of queueing them.
func (p *Poller) Ticks() <-chan time.Time { return p.ticks }

func (p *Poller) Start() {
	select {
	case p.start <- struct{}{}:
	default:
	}
}

func (p *Poller) Stop() {
	select {
	case p.stop <- struct{}{}:
	default:
	}
}

func (p *Poller) Run(ctx context.Context) error {
	var ticker *time.Ticker
	var tick <-chan time.Time

	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.start:
			if ticker == nil {
				ticker = time.NewTicker(p.interval)
				tick = ticker.C
			}
		case <-p.stop:
			if ticker != nil {
				ticker.Stop()
				ticker = nil
				tick = nil
			}
		case now := <-tick:
			select {
			case p.ticks <- now:
			default:
			}
		}
	}
}
