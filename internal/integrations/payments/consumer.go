package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/usecase/confirm_payment"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 200 * time.Millisecond
	fetchErrorBackoff   = time.Second
)

// Consumer читает события платежного сервиса из Kafka и применяет их к бронированиям
// Offset коммитится после обработки, поэтому событие может прийти повторно:
// повтор payment.succeeded с тем же paymentRef подтверждается без изменений
type Consumer struct {
	reader       MessageReader
	processor    PaymentProcessor
	maxRetries   int
	retryBackoff time.Duration
	metrics      Metrics
	logger       Logger
}

// NewReader создает kafka.Reader по конфигурации
func NewReader(cfg Config, logger Logger) (*kafka.Reader, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: at least one broker is required", ErrInvalidConfig)
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("%w: topic cannot be empty", ErrInvalidConfig)
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("%w: group ID cannot be empty", ErrInvalidConfig)
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        cfg.MaxWait,
		CommitInterval: cfg.CommitInterval,
		StartOffset:    kafka.FirstOffset,
		Logger:         kafka.LoggerFunc(func(string, ...interface{}) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error("kafka reader: "+msg, args...)
		}),
	}), nil
}

// NewConsumer создает консьюмер. metrics может быть nil
func NewConsumer(reader MessageReader, processor PaymentProcessor, cfg Config, metrics Metrics, logger Logger) *Consumer {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	return &Consumer{
		reader:       reader,
		processor:    processor,
		maxRetries:   maxRetries,
		retryBackoff: backoff,
		metrics:      metrics,
		logger:       logger,
	}
}

// Run обрабатывает сообщения до отмены контекста
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Payments consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("Payments consumer stopped")
				return nil
			}
			c.logger.Error("Payments consumer: failed to fetch message: %v", err)
			if !sleep(ctx, fetchErrorBackoff) {
				return nil
			}
			continue
		}

		// Временная ошибка: повторяем то же сообщение, пока оно не будет обработано,
		// иначе коммит следующего offset молча пропустил бы его
		for {
			err := c.HandleMessage(ctx, msg)
			if err == nil {
				break
			}
			c.logger.Error("Payments consumer: message partition=%d offset=%d not processed: %v",
				msg.Partition, msg.Offset, err)
			if !sleep(ctx, fetchErrorBackoff) {
				return nil
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Payments consumer: failed to commit offset=%d: %v", msg.Offset, err)
		}
	}
}

// Close закрывает reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// HandleMessage применяет одно событие. nil означает, что offset можно коммитить:
// событие обработано или не может быть обработано никогда (битое сообщение, отказ по бизнес-правилам)
func (c *Consumer) HandleMessage(ctx context.Context, msg kafka.Message) error {
	event, err := decodeEvent(msg.Value)
	if err != nil {
		c.logger.Warn("Payments consumer: skipping message offset=%d: %v", msg.Offset, err)
		c.observe("unknown", resultInvalid)
		return nil
	}

	var result string
	for attempt := 1; ; attempt++ {
		result, err = c.apply(ctx, event)
		if err == nil || !errors.Is(err, domain.ErrConflict) || attempt >= c.maxRetries {
			break
		}
		c.logger.Warn("Payments consumer: conflict on booking id=%s, retry %d/%d", event.BookingID, attempt, c.maxRetries)
		if !sleep(ctx, c.retryBackoff*time.Duration(attempt)) {
			return ctx.Err()
		}
	}

	switch {
	case err == nil:
		c.logger.Info("Payments consumer: %s for booking id=%s -> %s", event.Type, event.BookingID, result)
		c.observe(event.Type, result)
		return nil
	case errors.Is(err, ErrUnknownEventType),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidTransition):
		c.logger.Warn("Payments consumer: %s for booking id=%s rejected: %v", event.Type, event.BookingID, err)
		c.observe(event.Type, resultRejected)
		return nil
	default:
		c.observe(event.Type, resultError)
		return err
	}
}

func (c *Consumer) apply(ctx context.Context, event *Event) (string, error) {
	switch event.Type {
	case EventPaymentSucceeded:
		_, err := c.processor.ConfirmPayment(ctx, &confirm_payment.ConfirmRequest{
			BookingID:  event.BookingID,
			PaymentRef: event.PaymentRef,
		})
		if errors.Is(err, confirm_payment.ErrAlreadyConfirmed) {
			return resultReplayed, nil
		}
		return resultConfirmed, err
	case EventPaymentFailed:
		resp, err := c.processor.FailPayment(ctx, &confirm_payment.FailRequest{
			BookingID:  event.BookingID,
			PaymentRef: event.PaymentRef,
			Reason:     event.Reason,
		})
		if err != nil {
			return "", err
		}
		if !resp.Changed {
			return resultReplayed, nil
		}
		return resultCancelled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type)
	}
}

func (c *Consumer) observe(eventType, result string) {
	if c.metrics != nil {
		c.metrics.IncPaymentEvent(eventType, result)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
