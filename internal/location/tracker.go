// Package location runs the periodic position sampling the dashboard's map
// view consumes. It only observes: nothing here touches session or order
// state, so it needs no synchronization with the rest of the app.
package location

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tmoreno/drivermate/internal/routing"
)

// Sampler yields the device's current position. The real GPS service stands
// behind this; tests use a stub.
type Sampler interface {
	Sample(ctx context.Context) (routing.Point, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context) (routing.Point, error)

func (f SamplerFunc) Sample(ctx context.Context) (routing.Point, error) { return f(ctx) }

// Tracker polls the sampler on a fixed interval and publishes positions
// that moved at least minDistance meters since the last published one.
// Start/Stop ownership is explicit; the owning view must stop it on
// teardown.
type Tracker struct {
	sampler     Sampler
	interval    time.Duration
	minDistance float64
	points      chan routing.Point

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewTracker builds a tracker sampling every interval, suppressing
// publishes for movement under minDistance meters.
func NewTracker(s Sampler, interval time.Duration, minDistance float64) *Tracker {
	return &Tracker{
		sampler:     s,
		interval:    interval,
		minDistance: minDistance,
		points:      make(chan routing.Point, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Points delivers published positions; only the latest is retained when the
// consumer falls behind.
func (t *Tracker) Points() <-chan routing.Point {
	return t.points
}

// Start runs the sampling loop until Stop or ctx cancellation. The first
// sample fires immediately and is always published.
func (t *Tracker) Start(ctx context.Context) {
	go func() {
		defer close(t.done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		var last *routing.Point
		sample := func() {
			p, err := t.sampler.Sample(ctx)
			if err != nil {
				log.Printf("location: sample failed: %v", err)
				return
			}
			if last != nil && routing.DistanceMeters(*last, p) < t.minDistance {
				return
			}
			last = &p
			t.publish(p)
		}

		sample()
		for {
			select {
			case <-ticker.C:
				sample()
			case <-t.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts sampling and waits for the loop to exit. Safe to call more
// than once.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}

func (t *Tracker) publish(p routing.Point) {
	for {
		select {
		case t.points <- p:
			return
		default:
		}
		select {
		case <-t.points:
		default:
		}
	}
}
