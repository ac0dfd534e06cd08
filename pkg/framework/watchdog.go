package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Watchdog supervises registered tasks. Every task must Feed within
// the configured interval or the watchdog trips. On real hardware the
// trip resets the device; here it invokes OnTrip (default: log only)
// so tests can observe starvation.
type Watchdog struct {
	Interval time.Duration
	// OnTrip is called with the starved task name. A nil OnTrip
	// logs and keeps supervising.
	OnTrip func(task string)

	lock  sync.Mutex
	feeds map[string]time.Time
	trips uint64
}

// NewWatchdog creates a Watchdog with the given reset interval.
func NewWatchdog(interval time.Duration) *Watchdog {
	return &Watchdog{
		Interval: interval,
		feeds:    make(map[string]time.Time),
	}
}

// Register subscribes a task. The task counts as fed at registration.
func (w *Watchdog) Register(task string) {
	w.lock.Lock()
	w.feeds[task] = time.Now()
	w.lock.Unlock()
}

// Unregister removes a task from supervision.
func (w *Watchdog) Unregister(task string) {
	w.lock.Lock()
	delete(w.feeds, task)
	w.lock.Unlock()
}

// Feed marks the task alive.
func (w *Watchdog) Feed(task string) {
	w.lock.Lock()
	if _, ok := w.feeds[task]; ok {
		w.feeds[task] = time.Now()
	}
	w.lock.Unlock()
}

// Trips reports how many times the watchdog tripped.
func (w *Watchdog) Trips() uint64 {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.trips
}

func (w *Watchdog) check(now time.Time) []string {
	var starved []string
	w.lock.Lock()
	for task, last := range w.feeds {
		if now.Sub(last) > w.Interval {
			starved = append(starved, task)
			// one trip per missed interval, not per check
			w.feeds[task] = now
			w.trips++
		}
	}
	w.lock.Unlock()
	return starved
}

// Run implements Runnable. It polls at half the reset interval.
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.Interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			for _, task := range w.check(now) {
				glog.Errorf("watchdog: task %q starved for over %v", task, w.Interval)
				if w.OnTrip != nil {
					w.OnTrip(task)
				}
			}
		}
	}
}

// Name implements Named.
func (w *Watchdog) Name() string { return "watchdog" }
