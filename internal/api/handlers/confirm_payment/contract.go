package confirm_payment

import (
	"context"

	confirmPayment "github.com/m04kA/SMC-RentalService/internal/usecase/confirm_payment"
)

type PaymentUseCase interface {
	ConfirmPayment(ctx context.Context, req *confirmPayment.ConfirmRequest) (*confirmPayment.Response, error)
	FailPayment(ctx context.Context, req *confirmPayment.FailRequest) (*confirmPayment.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
