package orders

import (
	"context"
	"sync"
	"time"
)

// FetchFunc retrieves the driver's current assignment from the dispatch
// service.
type FetchFunc func(ctx context.Context) ([]Order, error)

// Snapshot is one poll outcome. Err is set when the fetch failed; the next
// tick is the retry.
type Snapshot struct {
	Orders []Order
	Err    error
	At     time.Time
}

// Poller re-fetches the order list on a fixed interval and publishes each
// outcome on Updates. Consumers apply snapshots last-writer-wins: no
// sequence number is attached, a slow stale response may overwrite a faster
// later one, and the short interval makes that acceptable.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	updates  chan Snapshot
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewPoller builds a poller; Start must be called before Updates yields
// anything.
func NewPoller(fetch FetchFunc, interval time.Duration) *Poller {
	return &Poller{
		fetch:    fetch,
		interval: interval,
		updates:  make(chan Snapshot, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Updates delivers poll outcomes. Only the latest snapshot is retained when
// the consumer falls behind.
func (p *Poller) Updates() <-chan Snapshot {
	return p.updates
}

// Start runs the loop until Stop is called or ctx is cancelled. The first
// fetch fires immediately. Ticks do not wait for a prior in-flight fetch;
// an overlapping slow response simply loses the last-writer race.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.poll(ctx)
		for {
			select {
			case <-ticker.C:
				go p.poll(ctx)
			case <-p.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop and waits for it to exit. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

func (p *Poller) poll(ctx context.Context) {
	list, err := p.fetch(ctx)
	snap := Snapshot{Orders: list, Err: err, At: time.Now()}

	// keep only the newest snapshot; a fetch that finishes after Stop has
	// no consumer anymore and its result is dropped
	for {
		select {
		case <-p.stop:
			return
		default:
		}
		select {
		case p.updates <- snap:
			return
		default:
		}
		select {
		case <-p.updates:
		default:
		}
	}
}
