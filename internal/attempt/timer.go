package attempt

import (
	"sync"
	"time"
)

// DefaultTick is how often the countdown recomputes remaining time.
const DefaultTick = time.Second

// Remaining derives the time left on an attempt clock from wall-clock
// time. Always recomputed fresh, never decremented, so missed ticks or a
// suspended process cannot skew it. Never negative; zero for untimed
// attempts.
func Remaining(now, startedAt time.Time, duration time.Duration) time.Duration {
	if duration <= 0 {
		return 0
	}
	left := duration - now.Sub(startedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Countdown ticks an attempt clock and fires expiry exactly once when the
// remaining time first reaches zero.
type Countdown struct {
	stop     chan struct{}
	stopOnce sync.Once
}

// StartCountdown runs a countdown for a timed attempt. onTick (optional)
// receives each recomputed remaining value; onExpire runs once, from the
// countdown goroutine, the first time zero is observed. Returns nil when
// duration is zero: untimed quizzes never start a timer.
func StartCountdown(startedAt time.Time, duration, tick time.Duration, now func() time.Time, onTick func(time.Duration), onExpire func()) *Countdown {
	if duration <= 0 {
		return nil
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	if now == nil {
		now = time.Now
	}

	c := &Countdown{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				// A tick and a stop can be ready together; stop wins.
				select {
				case <-c.stop:
					return
				default:
				}
				left := Remaining(now(), startedAt, duration)
				if onTick != nil {
					onTick(left)
				}
				if left == 0 {
					// Returning here is the single-fire guard: no
					// later tick can observe zero again.
					onExpire()
					return
				}
			}
		}
	}()
	return c
}

// Stop halts the countdown. Safe to call more than once or on a nil
// countdown (untimed attempts).
func (c *Countdown) Stop() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.stop) })
}
