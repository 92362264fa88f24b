// Package rotation cycles a fixed-size window over the filtered camera list.
package rotation

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jengzang/trafficcams/internal/models"
)

// State of the cycler
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Defaults for the rolling 2x2 view
const (
	DefaultWindowSize = 4
	DefaultPeriod     = 10 * time.Second
	DefaultTick       = time.Second
)

// Config controls window size and timer cadence
type Config struct {
	WindowSize int
	Period     time.Duration // frame advance
	Tick       time.Duration // countdown step

	// OnFrame is called after each rendered frame, outside the cycler lock
	OnFrame func(Frame)
}

// Source returns the current filtered camera list
type Source func() []models.Camera

// Frame is one rendered window. Slots holds WindowSize entries; a nil slot
// is a placeholder used when the list is empty.
type Frame struct {
	Index     int              `json:"index"`
	Total     int              `json:"total"`
	Slots     []*models.Camera `json:"slots"`
	Remaining int              `json:"remaining"`
	At        time.Time        `json:"at"`
}

// EventType distinguishes frame and countdown events
type EventType string

const (
	EventFrame     EventType = "frame"
	EventCountdown EventType = "countdown"
)

// Event is published to subscribers
type Event struct {
	Type      EventType `json:"type"`
	Frame     *Frame    `json:"frame,omitempty"`
	Remaining int       `json:"remaining"`
}

// Cycler advances a window over Source on a timer with a paired countdown
type Cycler struct {
	mu        sync.Mutex
	cfg       Config
	source    Source
	state     State
	index     int
	remaining int
	last      *Frame
	cancel    context.CancelFunc
	done      chan struct{}
	subs      map[string]chan Event
}

// New creates a stopped cycler
func New(source Source, cfg Config) *Cycler {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	return &Cycler{
		cfg:       cfg,
		source:    source,
		remaining: countdownFrom(cfg),
		subs:      make(map[string]chan Event),
	}
}

// countdownFrom is the number of countdown ticks in one frame period
func countdownFrom(cfg Config) int {
	n := int(cfg.Period / cfg.Tick)
	if n < 1 {
		n = 1
	}
	return n
}

// Start renders a frame at the current index and starts both timers.
// Starting a running cycler is a no-op. The index is not reset.
func (c *Cycler) Start(ctx context.Context) {
	c.mu.Lock()
	if c.state == Running {
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.state = Running
	c.cancel = cancel
	c.done = done
	c.remaining = countdownFrom(c.cfg)
	c.mu.Unlock()

	c.Advance()
	go c.run(runCtx, done)

	log.Printf("rotation started (window %d, every %s)", c.cfg.WindowSize, c.cfg.Period)
}

// Stop cancels both timers and waits for the loop to exit. Idempotent.
func (c *Cycler) Stop() {
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.state = Stopped
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	cancel()
	<-done
	log.Printf("rotation stopped at index %d", c.Index())
}

func (c *Cycler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	frames := time.NewTicker(c.cfg.Period)
	defer frames.Stop()
	countdown := time.NewTicker(c.cfg.Tick)
	defer countdown.Stop()

	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			// Parent context cancelled without Stop
			if c.done == done {
				c.state = Stopped
				c.cancel = nil
				c.done = nil
			}
			c.mu.Unlock()
			return
		case <-frames.C:
			c.Advance()
		case <-countdown.C:
			c.tick()
		}
	}
}

// Advance renders the window at the current index, then moves the index on
// by WindowSize modulo max(WindowSize, len(list)).
func (c *Cycler) Advance() Frame {
	list := c.source()

	c.mu.Lock()
	frame := Frame{
		Index:     c.index,
		Total:     len(list),
		Slots:     make([]*models.Camera, c.cfg.WindowSize),
		Remaining: c.remaining,
		At:        time.Now(),
	}
	if len(list) > 0 {
		for i := range frame.Slots {
			cam := list[(c.index+i)%len(list)]
			frame.Slots[i] = &cam
		}
	}

	mod := len(list)
	if mod < c.cfg.WindowSize {
		mod = c.cfg.WindowSize
	}
	c.index = (c.index + c.cfg.WindowSize) % mod
	c.last = &frame
	c.publish(Event{Type: EventFrame, Frame: &frame, Remaining: c.remaining})
	onFrame := c.cfg.OnFrame
	c.mu.Unlock()

	if onFrame != nil {
		onFrame(frame)
	}
	return frame
}

func (c *Cycler) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remaining <= 1 {
		c.remaining = countdownFrom(c.cfg)
	} else {
		c.remaining--
	}
	c.publish(Event{Type: EventCountdown, Remaining: c.remaining})
}

// publish must be called with mu held; slow subscribers miss events
func (c *Cycler) publish(ev Event) {
	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("rotation subscriber %s is slow, dropping %s event", id, ev.Type)
		}
	}
}

// Subscribe registers for frame and countdown events. The returned cancel
// function unregisters and closes the channel.
func (c *Cycler) Subscribe() (string, <-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, 16)

	c.mu.Lock()
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return id, ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

// State returns the current state
func (c *Cycler) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Index returns the start index of the next frame
func (c *Cycler) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Remaining returns the countdown value
func (c *Cycler) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// LastFrame returns the most recently rendered frame, if any
func (c *Cycler) LastFrame() (Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Frame{}, false
	}
	return *c.last, true
}
