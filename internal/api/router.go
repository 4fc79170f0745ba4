package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	confirmPaymentHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/confirm_payment"
	createBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/create_booking"
	decideBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/decide_booking"
	getBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_booking"
	getResourceBookingsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_resource_bookings"
	resourcesHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/resources"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
)

// Handlers набор HTTP обработчиков сервиса
type Handlers struct {
	CreateBooking       *createBookingHandler.Handler
	DecideBooking       *decideBookingHandler.Handler
	ConfirmPayment      *confirmPaymentHandler.Handler
	GetBooking          *getBookingHandler.Handler
	GetResourceBookings *getResourceBookingsHandler.Handler
	Resources           *resourcesHandler.Handler
}

// RouterConfig параметры маршрутизации
type RouterConfig struct {
	AdminToken    string
	PaymentsToken string
	MetricsPath   string // Пусто - endpoint метрик не публикуется
}

// NewRouter собирает маршруты сервиса. m может быть nil (метрики выключены)
func NewRouter(h Handlers, cfg RouterConfig, m *metrics.Metrics, logger middleware.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(logger))

	// Добавляем metrics middleware (если метрики включены)
	if m != nil {
		r.Use(middleware.MetricsMiddleware(m))
		if cfg.MetricsPath != "" {
			r.Handle(cfg.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
		}
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Создание бронирования
	api.HandleFunc("/bookings", h.CreateBooking.Handle).Methods(http.MethodPost)

	// Вместимость ресурса
	api.HandleFunc("/resources/{resourceId}/availability", h.Resources.Availability).Methods(http.MethodGet)

	// ============================================================
	// ADMIN ROUTES (Bearer токен + X-Admin-ID)
	// ============================================================

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuth(cfg.AdminToken))

	// --- Бронирования ---
	admin.HandleFunc("/bookings/{bookingId}", h.GetBooking.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/bookings/{bookingId}/approve", h.DecideBooking.Approve).Methods(http.MethodPost)
	admin.HandleFunc("/bookings/{bookingId}/reject", h.DecideBooking.Reject).Methods(http.MethodPost)
	admin.HandleFunc("/bookings/{bookingId}/cancel", h.DecideBooking.Cancel).Methods(http.MethodPost)
	admin.HandleFunc("/bookings/{bookingId}", h.DecideBooking.Delete).Methods(http.MethodDelete)

	// --- Каталог ---
	admin.HandleFunc("/resources", h.Resources.Create).Methods(http.MethodPost)
	admin.HandleFunc("/resources", h.Resources.List).Methods(http.MethodGet)
	admin.HandleFunc("/resources/{resourceId}", h.Resources.Get).Methods(http.MethodGet)
	admin.HandleFunc("/resources/{resourceId}", h.Resources.Retire).Methods(http.MethodDelete)
	admin.HandleFunc("/resources/{resourceId}/bookings", h.GetResourceBookings.Handle).Methods(http.MethodGet)

	// ============================================================
	// INTERNAL ROUTES (платежный сервис)
	// ============================================================

	internal := api.PathPrefix("/internal").Subrouter()
	internal.Use(middleware.ServiceAuth(cfg.PaymentsToken, domain.ActorPayments))

	internal.HandleFunc("/payments/{bookingId}/confirm", h.ConfirmPayment.Confirm).Methods(http.MethodPost)
	internal.HandleFunc("/payments/{bookingId}/fail", h.ConfirmPayment.Fail).Methods(http.MethodPost)

	return r
}
