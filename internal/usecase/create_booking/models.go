package create_booking

import "github.com/m04kA/SMC-RentalService/internal/domain"

// Request модель запроса на создание бронирования
type Request struct {
	ResourceID string  `validate:"required,max=64"`
	Quantity   int     `validate:"min=1"`
	Contact    Contact
}

// Contact контакт клиента
type Contact struct {
	Name  string `validate:"required,max=200"`
	Phone string `validate:"required,phone"`
	Email string `validate:"required,email,max=254"`
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking      *domain.Booking     // Созданное бронирование в статусе pending
	Availability domain.Availability // Вместимость ресурса после резервирования
}
