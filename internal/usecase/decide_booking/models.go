package decide_booking

import "github.com/m04kA/SMC-RentalService/internal/domain"

// ApproveRequest запрос на подтверждение заявки администратором
type ApproveRequest struct {
	BookingID string
	By        string  // Идентификатор администратора
	Reason    *string // Комментарий (опционально)
}

// RejectRequest запрос на отклонение заявки
type RejectRequest struct {
	BookingID string
	By        string
	Reason    string // Обязательная причина
}

// CancelRequest запрос на отмену бронирования
type CancelRequest struct {
	BookingID string
	By        string
	Reason    string // Обязательная причина

	// OnlyIfStatus ограничивает отмену бронированиями в этом статусе (проверяется под блокировкой)
	// nil - отменяется любое pending/approved бронирование
	OnlyIfStatus *domain.BookingStatus
}

// DeleteRequest запрос на удаление бронирования
type DeleteRequest struct {
	BookingID string
	By        string
}

// Response результат решения по бронированию
type Response struct {
	Booking      *domain.Booking
	Availability domain.Availability // Вместимость ресурса после решения
	Changed      bool                // false для идемпотентного повтора
}
