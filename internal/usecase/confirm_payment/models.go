package confirm_payment

import "github.com/m04kA/SMC-RentalService/internal/domain"

// ConfirmRequest подтверждение оплаты от платежного сервиса
type ConfirmRequest struct {
	BookingID  string
	PaymentRef string // Идентификатор платежа во внешней системе
}

// FailRequest уведомление о неуспешной оплате
type FailRequest struct {
	BookingID  string
	PaymentRef string
	Reason     string // Причина от платежного сервиса (опционально)
}

// Response результат обработки события оплаты
type Response struct {
	Booking      *domain.Booking
	Availability domain.Availability
	Changed      bool
}
