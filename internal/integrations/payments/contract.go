package payments

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-RentalService/internal/usecase/confirm_payment"
)

// MessageReader источник сообщений (kafka.Reader в production)
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PaymentProcessor обработчик результатов оплаты
type PaymentProcessor interface {
	ConfirmPayment(ctx context.Context, req *confirm_payment.ConfirmRequest) (*confirm_payment.Response, error)
	FailPayment(ctx context.Context, req *confirm_payment.FailRequest) (*confirm_payment.Response, error)
}

// Metrics счетчики событий платежного сервиса
type Metrics interface {
	IncPaymentEvent(eventType, result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
