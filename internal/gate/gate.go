// Package gate withholds quiz content until an optional unlock date and drives the
// live countdown shown while it is locked.
package gate

import (
	"sync"
	"time"
)

// DefaultInterval is how often a locked gate recomputes its countdown.
const DefaultInterval = time.Second

// State of a gate.
type State int

const (
	Unlocked State = iota
	Locked
)

func (s State) String() string {
	if s == Locked {
		return "locked"
	}
	return "unlocked"
}

// Ticker is the part of *time.Ticker the gate uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock replaces time.Now, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithTicker replaces time.NewTicker.
func WithTicker(newTicker TickerFunc) Option {
	return func(g *Gate) { g.newTicker = newTicker }
}

// WithInterval changes the tick period.
func WithInterval(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithLocation sets the zone for unlock dates without an offset.
func WithLocation(loc *time.Location) Option {
	return func(g *Gate) { g.loc = loc }
}

// Gate is a two-state lock around an optional unlock date.
//
// Callbacks passed to Start run on the gate's own goroutine, one at a time, and must
// not call Stop or Reset.
type Gate struct {
	now       func() time.Time
	newTicker TickerFunc
	interval  time.Duration
	loc       *time.Location

	mu       sync.Mutex
	raw      string
	target   time.Time
	state    State
	started  bool
	onTick   func(Countdown)
	onUnlock func()
	run      *run
}

type run struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func (r *run) cancel() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

// New evaluates unlock against the current time. An empty or unparsable value
// leaves the gate unlocked.
func New(unlock string, opts ...Option) *Gate {
	g := &Gate{
		now:       time.Now,
		newTicker: NewTimeTicker,
		interval:  DefaultInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.configureLocked(unlock)
	return g
}

func (g *Gate) configureLocked(unlock string) {
	g.raw = unlock
	target, ok := ParseUnlock(unlock, g.loc)
	if !ok || target.Sub(g.now()) <= 0 {
		g.target = time.Time{}
		g.state = Unlocked
		return
	}
	g.target = target
	g.state = Locked
}

// State reports the current state. A gate that is not running is re-evaluated
// against the clock.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Locked && g.run == nil && g.target.Sub(g.now()) <= 0 {
		g.state = Unlocked
	}
	return g.state
}

// Target returns the unlock date while the gate is locked.
func (g *Gate) Target() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.target, g.state == Locked
}

// Remaining is the countdown to the unlock date, zero once unlocked.
func (g *Gate) Remaining() Countdown {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Unlocked {
		return Countdown{}
	}
	return Decompose(g.target.Sub(g.now()))
}

// Start begins ticking if the gate is locked. onTick receives the countdown on every
// tick that still finds the gate locked; onUnlock runs once, in the tick that first
// observes the unlock date, after which the ticker is released. Either callback may
// be nil. Calling Start on a running gate replaces nothing and returns.
func (g *Gate) Start(onTick func(Countdown), onUnlock func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return
	}
	g.started = true
	g.onTick = onTick
	g.onUnlock = onUnlock
	g.startLocked()
}

func (g *Gate) startLocked() {
	if g.run != nil || g.state != Locked {
		return
	}
	if g.target.Sub(g.now()) <= 0 {
		g.state = Unlocked
		return
	}

	r := &run{stop: make(chan struct{}), done: make(chan struct{})}
	g.run = r
	go g.loop(r, g.target, g.newTicker(g.interval), g.onTick, g.onUnlock)
}

func (g *Gate) loop(r *run, target time.Time, ticker Ticker, onTick func(Countdown), onUnlock func()) {
	defer close(r.done)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C():
		}

		remaining := target.Sub(g.now())
		if remaining > 0 {
			if onTick != nil {
				onTick(Decompose(remaining))
			}
			continue
		}

		g.mu.Lock()
		if g.run == r {
			g.state = Unlocked
		}
		g.mu.Unlock()

		ticker.Stop()
		if onUnlock != nil {
			onUnlock()
		}
		return
	}
}

// Stop releases the ticker and waits for the tick goroutine to exit. Safe to call
// more than once and on a gate that never started.
func (g *Gate) Stop() {
	g.mu.Lock()
	g.started = false
	r := g.run
	g.run = nil
	g.mu.Unlock()

	if r != nil {
		r.cancel()
	}
}

// Reset points the gate at a new unlock date. A running ticker is cancelled before
// the new one starts, with the callbacks given to Start.
func (g *Gate) Reset(unlock string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	// Another Reset may start a run while g.mu is released for cancel.
	for g.run != nil {
		r := g.run
		g.run = nil
		g.mu.Unlock()
		r.cancel()
		g.mu.Lock()
	}
	g.configureLocked(unlock)
	if g.started {
		g.startLocked()
	}
}

// Raw returns the unlock value the gate was configured with.
func (g *Gate) Raw() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.raw
}
