// Package retrieval drives one summary request from validation to a terminal
// state: cache check, a single fetch, then a bounded poll loop while the
// service is still generating. Requests are last-writer-wins: starting one
// cancels the sequence already in flight.
package retrieval

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mycrub/daysum/pkg/clock"
	"github.com/mycrub/daysum/pkg/metrics"
	"github.com/mycrub/daysum/pkg/models"
	"github.com/mycrub/daysum/pkg/render"
	"github.com/mycrub/daysum/pkg/topic"
)

const (
	DefaultPollInterval = 20 * time.Second
	DefaultPollTimeout  = 180 * time.Second

	// DateLayout is the calendar date format the service expects.
	DateLayout = "2006-01-02"
)

// Fetcher asks the summarization service for one summary. It returns an
// error only when the exchange itself failed.
type Fetcher interface {
	Fetch(ctx context.Context, topic, date string) (models.Summary, error)
}

// SummaryCache stores completed summaries. Neither method reports failures.
type SummaryCache interface {
	Get(ctx context.Context, topic, date string) (models.Summary, bool)
	Put(ctx context.Context, topic, date string, s models.Summary)
}

// Controller owns the single "current request" slot.
type Controller struct {
	fetcher  Fetcher
	cache    SummaryCache
	renderer render.Renderer
	clock    clock.Clock
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
	messages render.Messages

	mu     sync.Mutex
	active *sequence
}

// Option configures a Controller.
type Option func(*Controller)

// WithRenderer sets where results are displayed. Defaults to render.Discard.
func WithRenderer(r render.Renderer) Option {
	return func(c *Controller) { c.renderer = r }
}

func WithClock(clk clock.Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithPolling sets the delay between polls and the overall budget of a
// sequence, measured from its start.
func WithPolling(interval, timeout time.Duration) Option {
	return func(c *Controller) {
		c.interval = interval
		c.timeout = timeout
	}
}

// WithMessages overrides user-facing strings; empty fields keep defaults.
func WithMessages(m render.Messages) Option {
	return func(c *Controller) { c.messages = m.Merge(render.DefaultMessages()) }
}

// New creates a Controller.
func New(f Fetcher, cache SummaryCache, opts ...Option) *Controller {
	c := &Controller{
		fetcher:  f,
		cache:    cache,
		renderer: render.Discard{},
		clock:    clock.Real{},
		logger:   slog.Default(),
		interval: DefaultPollInterval,
		timeout:  DefaultPollTimeout,
		messages: render.DefaultMessages(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sequence is one request context. Its fields other than ctx are only
// touched by the goroutine running the sequence.
type sequence struct {
	id        string
	topic     string
	date      string
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	state     State
	fetches   int
}

// Request runs a full sequence for (topicID, date) and blocks until it reaches
// a terminal state. Any sequence already running is cancelled first. The
// result is also delivered to the renderer unless the sequence is cancelled,
// by a later Request, by Cancel, or through ctx.
func (c *Controller) Request(ctx context.Context, topicID, date string) Outcome {
	return c.execute(c.begin(ctx, topicID, date))
}

// Start is the asynchronous form of Request. Any previous sequence has been
// superseded by the time Start returns, so calls from one goroutine keep
// their order. The channel receives exactly one Outcome.
func (c *Controller) Start(ctx context.Context, topicID, date string) <-chan Outcome {
	seq := c.begin(ctx, topicID, date)
	done := make(chan Outcome, 1)
	go func() { done <- c.execute(seq) }()
	return done
}

func (c *Controller) execute(seq *sequence) Outcome {
	defer c.end(seq)

	out := c.run(seq)
	out.ID = seq.id
	out.Fetches = seq.fetches

	metrics.Sequences.WithLabelValues(out.State.String()).Inc()
	c.logger.Info("summary request finished",
		"id", seq.id, "topic", seq.topic, "date", seq.date,
		"state", out.State, "fetches", out.Fetches, "cached", out.FromCache,
		"elapsed", c.clock.Now().Sub(seq.startedAt),
	)
	return out
}

// Cancel stops the active sequence, if any, without starting a new one.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.cancel()
		c.active = nil
	}
}

// Active returns the id of the running sequence.
func (c *Controller) Active() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", false
	}
	return c.active.id, true
}

func (c *Controller) begin(parent context.Context, topicID, date string) *sequence {
	ctx, cancel := context.WithCancel(parent)
	seq := &sequence{
		id:        uuid.NewString(),
		topic:     topicID,
		date:      date,
		startedAt: c.clock.Now(),
		ctx:       ctx,
		cancel:    cancel,
		state:     StateIdle,
	}

	c.mu.Lock()
	if c.active != nil {
		c.logger.Debug("superseding summary request", "id", c.active.id, "by", seq.id)
		c.active.cancel()
	}
	c.active = seq
	c.mu.Unlock()
	return seq
}

func (c *Controller) end(seq *sequence) {
	seq.cancel()
	c.mu.Lock()
	if c.active == seq {
		c.active = nil
	}
	c.mu.Unlock()
}

func (c *Controller) run(seq *sequence) Outcome {
	c.transition(seq, StateValidating)
	if !c.validDate(seq.date) {
		return c.fail(seq, StateFailed, ErrInvalidDate, c.messages.DateInvalid)
	}
	id, err := topic.Parse(seq.topic)
	if err != nil {
		c.logger.Debug("unresolved topic", "id", seq.id, "error", err)
		return c.fail(seq, StateFailed, ErrUnresolvedTopic, c.messages.TopicUnknown)
	}
	topicKey := id.String()

	c.transition(seq, StateCacheCheck)
	if seq.ctx.Err() != nil {
		return c.cancelled(seq)
	}
	if cached, ok := c.cache.Get(seq.ctx, topicKey, seq.date); ok && cached.Completed() {
		return c.complete(seq, topicKey, cached, true)
	}

	c.transition(seq, StateFetching)
	for {
		if seq.ctx.Err() != nil {
			return c.cancelled(seq)
		}

		s, err := c.fetcher.Fetch(seq.ctx, topicKey, seq.date)
		seq.fetches++

		if seq.ctx.Err() != nil {
			return c.cancelled(seq)
		}
		if err != nil {
			metrics.Fetches.WithLabelValues("transport_failure").Inc()
			c.logger.Warn("summary fetch failed", "id", seq.id, "error", err)
			return c.fail(seq, StateFailed, ErrTransportFailure, c.messages.Transport)
		}
		metrics.Fetches.WithLabelValues(statusLabel(s.Status)).Inc()

		switch s.Status {
		case models.StatusCompleted:
			return c.complete(seq, topicKey, s, false)
		case models.StatusError:
			return c.fail(seq, StateFailed, ErrServiceError, c.messages.ServiceError)
		case models.StatusInProgress:
			if seq.state == StateFetching {
				progress := render.ProgressHTML(c.messages.Progress)
				if !c.commit(seq, func() {
					c.transition(seq, StatePolling)
					c.renderer.HTML(progress)
				}) {
					return c.cancelled(seq)
				}
			} else if c.clock.Now().Sub(seq.startedAt) > c.timeout {
				return c.fail(seq, StateTimedOut, ErrTimeout, c.messages.Timeout)
			}
			if !c.wait(seq) {
				return c.cancelled(seq)
			}
		default:
			c.logger.Warn("unknown summary status", "id", seq.id, "status", s.Status)
			return c.fail(seq, StateFailed, ErrUnknownStatus, c.messages.UnknownStatus)
		}
	}
}

// commit runs act if seq is still the current, uncancelled sequence. The
// check and the action happen under the slot lock, so a concurrent Request
// either fully precedes or fully follows them.
func (c *Controller) commit(seq *sequence, act func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq.ctx.Err() != nil || c.active != seq {
		return false
	}
	act()
	return true
}

func (c *Controller) complete(seq *sequence, topicKey string, s models.Summary, fromCache bool) Outcome {
	fragment := render.Sanitize(s.Summary)
	if !c.commit(seq, func() {
		if !fromCache {
			c.cache.Put(context.WithoutCancel(seq.ctx), topicKey, seq.date, s)
		}
		c.transition(seq, StateCompleted)
		c.renderer.HTML(fragment)
	}) {
		return c.cancelled(seq)
	}
	return Outcome{
		State:     StateCompleted,
		Summary:   s,
		Rendered:  fragment,
		HTML:      true,
		FromCache: fromCache,
	}
}

func (c *Controller) fail(seq *sequence, state State, err error, msg string) Outcome {
	if !c.commit(seq, func() {
		c.transition(seq, state)
		c.renderer.Text(msg)
	}) {
		return c.cancelled(seq)
	}
	return Outcome{State: state, Err: err, Rendered: msg}
}

func (c *Controller) cancelled(seq *sequence) Outcome {
	c.transition(seq, StateCancelled)
	return Outcome{State: StateCancelled, Err: ErrCancelled}
}

// wait sleeps for one poll interval. It reports false if the sequence was
// cancelled before or during the wait.
func (c *Controller) wait(seq *sequence) bool {
	select {
	case <-seq.ctx.Done():
		return false
	case <-c.clock.After(c.interval):
		return seq.ctx.Err() == nil
	}
}

func (c *Controller) transition(seq *sequence, to State) {
	c.logger.Debug("summary state", "id", seq.id, "from", seq.state, "to", to)
	seq.state = to
}

// validDate reports whether date is a calendar day strictly before today.
func (c *Controller) validDate(date string) bool {
	now := c.clock.Now()
	d, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.Before(today)
}

// Yesterday returns the latest date a summary can be requested for.
func Yesterday(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(DateLayout)
}

func statusLabel(s models.Status) string {
	if s.Known() {
		return string(s)
	}
	return "unknown"
}
