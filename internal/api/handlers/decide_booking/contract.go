package decide_booking

import (
	"context"

	decideBooking "github.com/m04kA/SMC-RentalService/internal/usecase/decide_booking"
)

type DecideBookingUseCase interface {
	Approve(ctx context.Context, req *decideBooking.ApproveRequest) (*decideBooking.Response, error)
	Reject(ctx context.Context, req *decideBooking.RejectRequest) (*decideBooking.Response, error)
	Cancel(ctx context.Context, req *decideBooking.CancelRequest) (*decideBooking.Response, error)
	Delete(ctx context.Context, req *decideBooking.DeleteRequest) (*decideBooking.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
