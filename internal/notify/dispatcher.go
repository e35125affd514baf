package notify

import (
	"context"
	"sync"
	"time"

	"store-api/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderStore is the order persistence the dispatcher needs.
type OrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ClaimConfirmationEmail(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error)
	RecordConfirmationEmail(ctx context.Context, id uuid.UUID, sent bool) error
	ListPendingConfirmations(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// DispatcherConfig sizes the queue and the worker pool.
type DispatcherConfig struct {
	Workers       int
	QueueSize     int
	SweepInterval time.Duration
	ClaimTTL      time.Duration
}

// Dispatcher delivers confirmation emails on background workers.
// Delivery is at-least-once: jobs dropped from a full queue or lost in a crash are
// picked up again by the periodic sweep until the order records a sent email.
type Dispatcher struct {
	store  OrderStore
	sender Sender
	cfg    DispatcherConfig
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan uuid.UUID
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Call Start before enqueueing.
func NewDispatcher(store OrderStore, sender Sender, cfg DispatcherConfig, logger zerolog.Logger) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 5 * time.Minute
	}

	return &Dispatcher{
		store:  store,
		sender: sender,
		cfg:    cfg,
		logger: logger.With().Str("component", "email_dispatcher").Logger(),
		jobs:   make(chan uuid.UUID, cfg.QueueSize),
	}
}

// Start launches the workers and, if SweepInterval is positive, the sweeper.
// ctx is only used for values; cancellation comes from Close.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.stop = cancel

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}

	if d.cfg.SweepInterval > 0 {
		d.wg.Add(1)
		go d.sweeper(ctx)
	}

	d.logger.Info().
		Int("workers", d.cfg.Workers).
		Int("queue_size", d.cfg.QueueSize).
		Dur("sweep_interval", d.cfg.SweepInterval).
		Msg("email dispatcher started")
}

// Enqueue schedules a confirmation email without blocking. It returns false when the
// job was not queued; the sweep will retry it.
func (d *Dispatcher) Enqueue(orderID uuid.UUID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}

	select {
	case d.jobs <- orderID:
		return true
	default:
		d.logger.Warn().Str("order_id", orderID.String()).Msg("email queue full, deferring to sweep")
		return false
	}
}

// Sweep enqueues every order still owed a confirmation email.
func (d *Dispatcher) Sweep(ctx context.Context) (int, error) {
	ids, err := d.store.ListPendingConfirmations(ctx, d.cfg.QueueSize)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, id := range ids {
		if d.Enqueue(id) {
			queued++
		}
	}

	if queued > 0 {
		d.logger.Info().Int("count", queued).Msg("re-enqueued pending confirmation emails")
	}

	return queued, nil
}

// Close stops accepting jobs, lets the workers drain the queue and waits for them.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	if d.stop != nil {
		d.stop()
	}
	d.wg.Wait()

	d.logger.Info().Msg("email dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, n int) {
	defer d.wg.Done()

	for id := range d.jobs {
		// Queued jobs still run after Close cancels ctx.
		d.process(context.WithoutCancel(ctx), id)
	}

	d.logger.Debug().Int("worker", n).Msg("email worker exited")
}

func (d *Dispatcher) sweeper(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Sweep(ctx); err != nil && ctx.Err() == nil {
				d.logger.Error().Err(err).Msg("confirmation email sweep failed")
			}
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, id uuid.UUID) {
	logger := d.logger.With().Str("order_id", id.String()).Logger()

	claimed, err := d.store.ClaimConfirmationEmail(ctx, id, d.cfg.ClaimTTL)
	if err != nil {
		logger.Error().Err(err).Msg("failed to claim confirmation email")
		return
	}
	if !claimed {
		logger.Debug().Msg("confirmation email already sent or in flight")
		return
	}

	order, err := d.store.GetByID(ctx, id)
	if err != nil || order == nil {
		logger.Error().Err(err).Msg("failed to load order for confirmation email")
		d.record(ctx, logger, id, false)
		return
	}

	sent, err := d.sender.SendConfirmationEmail(ctx, order)
	if err != nil {
		logger.Error().Err(err).Msg("confirmation email failed")
	} else if !sent {
		logger.Warn().Msg("confirmation email not accepted for customer address")
	}

	d.record(ctx, logger, id, err == nil && sent)
}

func (d *Dispatcher) record(ctx context.Context, logger zerolog.Logger, id uuid.UUID, sent bool) {
	if err := d.store.RecordConfirmationEmail(ctx, id, sent); err != nil {
		logger.Error().Err(err).Bool("sent", sent).Msg("failed to record confirmation email outcome")
	}
}

// Discard is a queue that drops every job; used when email is disabled.
type Discard struct{}

// Enqueue drops the job.
func (Discard) Enqueue(uuid.UUID) bool { return false }
