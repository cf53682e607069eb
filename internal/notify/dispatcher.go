// Package notify delivers best-effort notifications about new pain points.
// Delivery runs on a background worker; failures are logged and never reach
// the ingestion caller.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"painsignal/internal/config"
	"painsignal/internal/metrics"
	"painsignal/internal/models"

	"go.uber.org/zap"
)

// ErrNotification wraps every sink failure reported on the error channel.
var ErrNotification = errors.New("notification failed")

const defaultSendTimeout = 15 * time.Second

// Sink delivers one record to an external channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, rec *models.PainPointRecord) error
}

// Dispatcher queues records and hands them to every sink from a single
// worker goroutine.
type Dispatcher struct {
	sinks   []Sink
	queue   chan *models.PainPointRecord
	errs    chan error
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup
}

// NewDispatcher starts the worker and the error logger. A dispatcher with no
// sinks accepts and discards records.
func NewDispatcher(sinks []Sink, queueSize int, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}

	d := &Dispatcher{
		sinks:   sinks,
		queue:   make(chan *models.PainPointRecord, queueSize),
		errs:    make(chan error, queueSize),
		timeout: defaultSendTimeout,
		logger:  logger,
	}

	d.wg.Add(2)
	go d.run()
	go d.logErrors()

	return d
}

// NewFromConfig builds the sinks that are fully configured. Missing settings
// disable a sink without error.
func NewFromConfig(cfg config.NotificationConfig, logger *zap.Logger) (*Dispatcher, error) {
	var sinks []Sink

	if cfg.EmailEnabled() {
		sinks = append(sinks, NewResendSink(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.To))
		logger.Info("Email notifications enabled", zap.String("to", cfg.Email.To))
	} else {
		logger.Warn("Email configuration missing, email notifications disabled")
	}

	if cfg.TelegramEnabled() {
		sink, err := NewTelegramBotSink(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	return NewDispatcher(sinks, cfg.QueueSize, logger), nil
}

// Notify enqueues rec without blocking. A full queue or a closed dispatcher
// drops the record.
func (d *Dispatcher) Notify(rec *models.PainPointRecord) {
	if rec == nil || len(d.sinks) == 0 {
		return
	}
	cp := *rec

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	select {
	case d.queue <- &cp:
	default:
		metrics.Notifications.WithLabelValues("queue", "dropped").Inc()
		d.logger.Warn("Notification queue full, dropping notification", zap.String("id", rec.ID))
	}
}

// Close stops accepting records, delivers what is queued and waits for both
// goroutines to exit.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	defer close(d.errs)

	for rec := range d.queue {
		for _, sink := range d.sinks {
			d.deliver(sink, rec)
		}
	}
}

func (d *Dispatcher) deliver(sink Sink, rec *models.PainPointRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := sink.Send(ctx, rec); err != nil {
		metrics.Notifications.WithLabelValues(sink.Name(), "failed").Inc()
		d.errs <- fmt.Errorf("%w: %s sink, record %s: %w", ErrNotification, sink.Name(), rec.ID, err)
		return
	}

	metrics.Notifications.WithLabelValues(sink.Name(), "ok").Inc()
	d.logger.Debug("Notification sent", zap.String("sink", sink.Name()), zap.String("id", rec.ID))
}

func (d *Dispatcher) logErrors() {
	defer d.wg.Done()
	for err := range d.errs {
		d.logger.Error("Failed to send notification", zap.Error(err))
	}
}
