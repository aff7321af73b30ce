package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/emotion-classifier/internal/classifier"
	"github.com/xaenox/emotion-classifier/internal/metrics"
	"github.com/xaenox/emotion-classifier/internal/models"
)

const (
	ValidationMessage   = "Please enter some text to analyze."
	UnrecognizedMessage = "Unexpected response from the classification service."

	DefaultTimeout = 30 * time.Second
)

// UnrecognizedPolicy decides what happens to a 2xx body that is not a score list
type UnrecognizedPolicy string

const (
	// Accept renders the raw body as a successful outcome
	Accept UnrecognizedPolicy = "accept"
	// Reject turns it into an error
	Reject UnrecognizedPolicy = "reject"
)

type Options struct {
	Timeout      time.Duration
	Policy       UnrecognizedPolicy
	DiscardStale bool
	Metrics      *metrics.Metrics
}

// Listener is called after every state transition, in transition order.
// Listeners must not call Submit.
type Listener func(models.State)

// Controller owns the request lifecycle of one input
type Controller struct {
	classifier   classifier.Classifier
	normalizer   *classifier.Normalizer
	timeout      time.Duration
	policy       UnrecognizedPolicy
	discardStale bool
	metrics      *metrics.Metrics
	logger       *zap.Logger

	mu        sync.Mutex
	state     models.State
	seq       uint64
	listeners []Listener

	notifyMu sync.Mutex
	inflight sync.WaitGroup
}

func New(clf classifier.Classifier, normalizer *classifier.Normalizer, opts Options, logger *zap.Logger) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Policy == "" {
		opts.Policy = Accept
	}
	return &Controller{
		classifier:   clf,
		normalizer:   normalizer,
		timeout:      opts.Timeout,
		policy:       opts.Policy,
		discardStale: opts.DiscardStale,
		metrics:      opts.Metrics,
		logger:       logger,
		state:        models.Idle(),
	}
}

func (c *Controller) State() models.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Submit validates text and, if valid, starts one classification request.
// The returned state is either a validation Error or Loading; the final state
// is delivered to listeners once the request settles.
func (c *Controller) Submit(text string) models.State {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		c.metrics.ObserveSubmit(metrics.OutcomeInvalid)
		state, _ := c.apply(seq, models.Failed(seq, "", ValidationMessage))
		return state
	}

	requestID := uuid.New().String()
	c.logger.Debug("Submitting text for classification",
		zap.Uint64("seq", seq),
		zap.String("request_id", requestID),
		zap.String("backend", c.classifier.Name()),
		zap.Int("length", len(text)))

	loading, _ := c.apply(seq, models.Loading(seq, requestID))

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.run(seq, requestID, text)
	}()

	return loading
}

// Wait blocks until every in-flight request has settled
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) run(seq uint64, requestID string, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	next, outcome := c.classify(ctx, seq, requestID, text)
	c.metrics.ObserveRequest(outcome, time.Since(start))

	if msg, ok := next.Message(); ok {
		c.logger.Error("Failed to classify text",
			zap.Uint64("seq", seq),
			zap.String("request_id", requestID),
			zap.String("message", msg))
	}

	if _, applied := c.apply(seq, next); !applied {
		c.metrics.ObserveStale()
		c.logger.Debug("Discarded stale classification response",
			zap.Uint64("seq", seq),
			zap.String("request_id", requestID))
		return
	}
	c.metrics.ObserveSubmit(outcome)
}

func (c *Controller) classify(ctx context.Context, seq uint64, requestID string, text string) (models.State, string) {
	raw, err := c.classifier.Classify(ctx, text)
	if err != nil {
		var transportErr *classifier.TransportError
		timedOut := errors.As(err, &transportErr) && transportErr.Timeout
		if timedOut || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg := fmt.Sprintf("timeout of %dms exceeded", c.timeout.Milliseconds())
			return models.Failed(seq, requestID, msg), metrics.OutcomeError
		}
		return models.Failed(seq, requestID, classifier.Describe(err)), metrics.OutcomeError
	}

	outcome, err := c.normalizer.Normalize(raw)
	if err != nil {
		return models.Failed(seq, requestID, classifier.Describe(err)), metrics.OutcomeError
	}

	if outcome.Kind() == models.Unrecognized {
		if c.policy == Reject {
			return models.Failed(seq, requestID, UnrecognizedMessage), metrics.OutcomeError
		}
		return models.Succeeded(seq, requestID, outcome), metrics.OutcomeUnrecognized
	}
	return models.Succeeded(seq, requestID, outcome), metrics.OutcomeSuccess
}

// apply transitions to next unless stale responses are discarded and a newer
// submit exists. It reports whether the transition happened.
func (c *Controller) apply(seq uint64, next models.State) (models.State, bool) {
	c.mu.Lock()
	if c.discardStale && seq != c.seq {
		current := c.state
		c.mu.Unlock()
		return current, false
	}

	c.state = next
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)

	// notifyMu is taken before mu is released so listeners observe transitions in order.
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next, true
}
