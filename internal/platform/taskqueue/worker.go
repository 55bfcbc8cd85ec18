// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/taibuivan/libris/internal/platform/ctxutil"
)

// Defaults applied by [NewWorker] to zero-valued options.
const (
	defaultConcurrency       = 4
	defaultMinBackoff        = 15 * time.Second
	defaultMaxBackoff        = time.Hour
	defaultVisibilityTimeout = 15 * time.Minute
	defaultBlock             = 2 * time.Second
	defaultPumpInterval      = time.Second
	defaultReclaimInterval   = 30 * time.Second
	errorPause               = time.Second
)

// Options configures a [Worker].
type Options struct {
	// Consumer names this process inside the consumer group. Defaults to the hostname.
	Consumer string

	Concurrency int

	MinBackoff time.Duration
	MaxBackoff time.Duration

	// VisibilityTimeout is how long a delivery may go without a heartbeat
	// before another consumer reclaims it. Keep it above every actor's TimeLimit.
	VisibilityTimeout time.Duration

	Block           time.Duration
	PumpInterval    time.Duration
	ReclaimInterval time.Duration

	// Now is the clock used for age limits and delayed promotion.
	Now func() time.Time
}

// Outcome is what the worker did with one delivery.
type Outcome string

const (
	OutcomeAcked        Outcome = "acked"
	OutcomeRetried      Outcome = "retried"
	OutcomeDeadLettered Outcome = "dead_lettered"
	OutcomeExpired      Outcome = "expired"
)

// Worker consumes the queues of its registered actors.
type Worker struct {
	transport Transport
	logger    *slog.Logger
	opts      Options
	actors    map[string]*Actor
	queues    []string
}

// NewWorker returns a worker without actors.
func NewWorker(transport Transport, opts Options, logger *slog.Logger) *Worker {
	if opts.Consumer == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "worker"
		}
		opts.Consumer = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = defaultMinBackoff
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = max(defaultMaxBackoff, opts.MinBackoff)
	}
	if opts.VisibilityTimeout <= 0 {
		opts.VisibilityTimeout = defaultVisibilityTimeout
	}
	if opts.Block <= 0 {
		opts.Block = defaultBlock
	}
	if opts.PumpInterval <= 0 {
		opts.PumpInterval = defaultPumpInterval
	}
	if opts.ReclaimInterval <= 0 {
		opts.ReclaimInterval = defaultReclaimInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Worker{
		transport: transport,
		logger:    logger.With(slog.String("consumer", opts.Consumer)),
		opts:      opts,
		actors:    make(map[string]*Actor),
	}
}

// Register adds an actor. Names are unique across queues.
func (w *Worker) Register(actor Actor) error {
	if err := actor.validate(); err != nil {
		return err
	}
	if _, exists := w.actors[actor.Name]; exists {
		return fmt.Errorf("taskqueue: actor %q already registered", actor.Name)
	}

	w.actors[actor.Name] = &actor

	for _, queue := range w.queues {
		if queue == actor.Queue {
			return nil
		}
	}
	w.queues = append(w.queues, actor.Queue)
	sort.Strings(w.queues)
	return nil
}

/*
Run consumes until ctx is cancelled.

Goroutines:

  - one fetch loop per queue feeding the delivery channel
  - Options.Concurrency consumers draining it
  - the delayed-retry pump
  - the reclaimer for deliveries abandoned by crashed consumers

Fetching and reclaiming take a slot per delivery and consumers return it
when the delivery is settled, so nothing is fetched before a consumer is
free to start it. In-flight handlers finish after cancellation; fetched but
unstarted deliveries stay pending and are reclaimed later.
*/
func (w *Worker) Run(ctx context.Context) error {
	if len(w.actors) == 0 {
		return errors.New("taskqueue: no actors registered")
	}

	w.logger.Info("worker_started",
		slog.Any("queues", w.queues),
		slog.Int("concurrency", w.opts.Concurrency),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	slots := semaphore.NewWeighted(int64(w.opts.Concurrency))
	deliveries := make(chan Delivery, w.opts.Concurrency)

	for _, queue := range w.queues {
		queue := queue
		group.Go(func() error { return w.fetchLoop(groupCtx, queue, slots, deliveries) })
		group.Go(func() error { return w.reclaimLoop(groupCtx, queue, slots, deliveries) })
	}

	for i := 0; i < w.opts.Concurrency; i++ {
		group.Go(func() error {
			w.consume(groupCtx, slots, deliveries)
			return nil
		})
	}

	group.Go(func() error { return w.pumpLoop(groupCtx) })

	err := group.Wait()
	w.logger.Info("worker_stopped")
	return err
}

// ProcessOnce fetches whatever is ready on every queue without blocking and
// processes it sequentially. It returns the number of deliveries handled.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	handled := 0
	for _, queue := range w.queues {
		batch, err := w.transport.Fetch(ctx, queue, w.opts.Consumer, 0, 0)
		if err != nil {
			return handled, err
		}
		for _, delivery := range batch {
			if _, err := w.Process(ctx, delivery); err != nil {
				return handled, err
			}
			handled++
		}
	}
	return handled, nil
}

// Pump promotes due retries on every queue.
func (w *Worker) Pump(ctx context.Context) (int, error) {
	total := 0
	for _, queue := range w.queues {
		promoted, err := w.transport.PromoteDue(ctx, queue, w.opts.Now())
		total += promoted
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

/*
Process runs one delivery through its actor and settles it with the transport.

Returns:
  - Outcome: What happened to the message
  - error: Only transport failures; handler errors feed the retry policy
*/
func (w *Worker) Process(ctx context.Context, delivery Delivery) (Outcome, error) {
	msg := delivery.Message
	logger := w.logger.With(
		slog.String("message_id", msg.ID),
		slog.String("queue", msg.Queue),
		slog.String("actor", msg.Actor),
	)
	state := newLifecycle(msg, logger)

	actor, ok := w.actors[msg.Actor]
	if !ok {
		msg.LastError = fmt.Sprintf("taskqueue: unknown actor %q", msg.Actor)
		logger.ErrorContext(ctx, "task_unknown_actor")
		return w.bury(ctx, state, delivery, logger)
	}

	if actor.MaxAge > 0 && msg.Age(w.opts.Now()) > actor.MaxAge {
		if err := state.fire(ctx, EventExpire); err != nil {
			return "", err
		}
		logger.WarnContext(ctx, "task_expired", slog.Duration("age", msg.Age(w.opts.Now())))
		return OutcomeExpired, w.transport.Ack(ctx, delivery)
	}

	if err := state.fire(ctx, EventDeliver); err != nil {
		return "", err
	}

	started := time.Now()
	stopHeartbeat := w.heartbeat(ctx, delivery, logger)
	err := w.invoke(ctx, actor, msg, logger)
	stopHeartbeat()
	if err == nil {
		if err := state.fire(ctx, EventSucceed); err != nil {
			return "", err
		}
		logger.InfoContext(ctx, "task_done", slog.Duration("elapsed", time.Since(started)))
		return OutcomeAcked, w.transport.Ack(ctx, delivery)
	}

	msg.LastError = err.Error()

	if actor.shouldRetry(msg.Retries, err) {
		msg.Retries++
		delay := Backoff(w.opts.MinBackoff, w.opts.MaxBackoff, msg.Retries)

		if err := state.fire(ctx, EventRetry); err != nil {
			return "", err
		}
		logger.WarnContext(ctx, "task_retry_scheduled",
			slog.Int("retries", msg.Retries),
			slog.Int("max_retries", actor.MaxRetries),
			slog.Duration("delay", delay),
			slog.String("error", msg.LastError),
		)
		return OutcomeRetried, w.transport.Defer(ctx, delivery, w.opts.Now().Add(delay))
	}

	return w.bury(ctx, state, delivery, logger)
}

func (w *Worker) bury(ctx context.Context, state *lifecycle, delivery Delivery, logger *slog.Logger) (Outcome, error) {
	if err := state.fire(ctx, EventBury); err != nil {
		return "", err
	}
	logger.ErrorContext(ctx, "task_dead_lettered",
		slog.Int("retries", delivery.Message.Retries),
		slog.String("error", delivery.Message.LastError),
	)
	return OutcomeDeadLettered, w.transport.DeadLetter(ctx, delivery)
}

// invoke runs the handler under the actor's time limit. A panicking handler
// counts as a failed attempt.
func (w *Worker) invoke(ctx context.Context, actor *Actor, msg *Message, logger *slog.Logger) error {
	runCtx := ctxutil.WithLogger(ctxutil.WithMessageID(ctx, msg.ID), logger)

	if actor.TimeLimit > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, actor.TimeLimit)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				done <- fmt.Errorf("taskqueue: handler panic: %v", recovered)
			}
		}()
		done <- actor.Handler(runCtx, msg)
	}()

	select {
	case err := <-done:
		if err != nil && actor.TimeLimit > 0 && errors.Is(err, context.DeadlineExceeded) && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeLimitExceeded, actor.TimeLimit)
		}
		return err
	case <-runCtx.Done():
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeLimitExceeded, actor.TimeLimit)
		}
		return runCtx.Err()
	}
}

// heartbeat keeps delivery claimed while its handler runs. The returned
// function stops it and waits for the last extension to finish.
func (w *Worker) heartbeat(ctx context.Context, delivery Delivery, logger *slog.Logger) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(max(w.opts.VisibilityTimeout/3, time.Millisecond))
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if err := w.transport.Extend(ctx, w.opts.Consumer, delivery); err != nil && ctx.Err() == nil {
				logger.WarnContext(ctx, "task_heartbeat_failed", slog.Any("error", err))
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// # Loops

// acquire blocks for one free slot and then takes as many more as are free,
// up to the worker's concurrency.
func (w *Worker) acquire(ctx context.Context, slots *semaphore.Weighted) (int, error) {
	if err := slots.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	n := 1
	for n < w.opts.Concurrency && slots.TryAcquire(1) {
		n++
	}
	return n, nil
}

func (w *Worker) fetchLoop(ctx context.Context, queue string, slots *semaphore.Weighted, deliveries chan<- Delivery) error {
	for ctx.Err() == nil {
		free, err := w.acquire(ctx, slots)
		if err != nil {
			return nil
		}

		batch, err := w.transport.Fetch(ctx, queue, w.opts.Consumer, free, w.opts.Block)
		slots.Release(int64(free - len(batch)))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("task_fetch_failed", slog.String("queue", queue), slog.Any("error", err))
			pause(ctx, errorPause)
			continue
		}

		for _, delivery := range batch {
			deliveries <- delivery
		}
	}
	return nil
}

func (w *Worker) reclaimLoop(ctx context.Context, queue string, slots *semaphore.Weighted, deliveries chan<- Delivery) error {
	ticker := time.NewTicker(w.opts.ReclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		free, err := w.acquire(ctx, slots)
		if err != nil {
			return nil
		}

		batch, err := w.transport.Reclaim(ctx, queue, w.opts.Consumer, w.opts.VisibilityTimeout, free)
		slots.Release(int64(free - len(batch)))
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Error("task_reclaim_failed", slog.String("queue", queue), slog.Any("error", err))
			}
			continue
		}

		if len(batch) > 0 {
			w.logger.Warn("task_deliveries_reclaimed", slog.String("queue", queue), slog.Int("count", len(batch)))
		}

		for _, delivery := range batch {
			deliveries <- delivery
		}
	}
}

func (w *Worker) pumpLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.PumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if _, err := w.Pump(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("task_pump_failed", slog.Any("error", err))
		}
	}
}

func (w *Worker) consume(ctx context.Context, slots *semaphore.Weighted, deliveries <-chan Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery := <-deliveries:
			// Let the handler finish even when shutdown starts mid-delivery
			if _, err := w.Process(context.WithoutCancel(ctx), delivery); err != nil {
				w.logger.Error("task_settle_failed",
					slog.String("message_id", delivery.Message.ID),
					slog.Any("error", err),
				)
			}
			slots.Release(1)
		}
	}
}

func pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
