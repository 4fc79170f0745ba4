package payments

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Типы событий платежного сервиса
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// Результаты обработки события (метка метрики)
const (
	resultConfirmed = "confirmed"
	resultReplayed  = "replayed"
	resultCancelled = "cancelled"
	resultRejected  = "rejected"
	resultInvalid   = "invalid"
	resultError     = "error"
)

// Event событие платежного сервиса
type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"bookingId"`
	PaymentRef string    `json:"paymentRef"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt,omitempty"`
}

// Config параметры подключения консьюмера
type Config struct {
	Brokers        []string
	Topic          string
	GroupID        string
	MinBytes       int
	MaxBytes       int
	MaxWait        time.Duration
	CommitInterval time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

// decodeEvent разбирает и проверяет тело сообщения
func decodeEvent(value []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	event.Type = strings.TrimSpace(event.Type)
	event.BookingID = strings.TrimSpace(event.BookingID)
	event.PaymentRef = strings.TrimSpace(event.PaymentRef)

	if event.BookingID == "" || event.PaymentRef == "" {
		return nil, fmt.Errorf("%w: bookingId and paymentRef are required", ErrInvalidEvent)
	}

	return &event, nil
}
