package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	confirmPaymentHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/confirm_payment"
	createBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/create_booking"
	decideBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/decide_booking"
	getBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_booking"
	getResourceBookingsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_resource_bookings"
	resourcesHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/resources"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-RentalService/internal/service/allocator"
	bookingsService "github.com/m04kA/SMC-RentalService/internal/service/bookings"
	"github.com/m04kA/SMC-RentalService/internal/service/catalog"
	confirmPaymentUC "github.com/m04kA/SMC-RentalService/internal/usecase/confirm_payment"
	createBookingUC "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
	decideBookingUC "github.com/m04kA/SMC-RentalService/internal/usecase/decide_booking"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
)

const (
	adminToken    = "admin-secret"
	paymentsToken = "payments-secret"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	log := logger.NewWithWriter(io.Discard, logger.LevelError)
	store := memory.NewStore()
	tx := store.TxManager()

	catalogSvc := catalog.NewService(store.Resources(), store.Bookings(), tx, log)
	alloc := allocator.NewService(catalogSvc, nil, log)
	bookingSvc := bookingsService.NewService(store.Bookings(), catalogSvc, log)
	create := createBookingUC.NewUseCase(catalogSvc, alloc, store.Bookings(), tx, nil, log)
	decide := decideBookingUC.NewUseCase(store.Bookings(), alloc, tx, nil, log)
	confirm := confirmPaymentUC.NewUseCase(store.Bookings(), alloc, decide, tx, nil, log)

	return NewRouter(Handlers{
		CreateBooking:       createBookingHandler.NewHandler(create, log),
		DecideBooking:       decideBookingHandler.NewHandler(decide, log),
		ConfirmPayment:      confirmPaymentHandler.NewHandler(confirm, log),
		GetBooking:          getBookingHandler.NewHandler(bookingSvc, log),
		GetResourceBookings: getResourceBookingsHandler.NewHandler(bookingSvc, log),
		Resources:           resourcesHandler.NewHandler(catalogSvc, log),
	}, RouterConfig{AdminToken: adminToken, PaymentsToken: paymentsToken}, nil, log)
}

type client struct {
	t   *testing.T
	srv http.Handler
}

func (c client) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if token == adminToken {
		req.Header.Set("X-Admin-ID", "admin-7")
	}
	rec := httptest.NewRecorder()
	c.srv.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec.Code, decoded
}

func bookingBody(resourceID string, quantity int) map[string]interface{} {
	return map[string]interface{}{
		"resourceId": resourceID,
		"quantity":   quantity,
		"contact": map[string]string{
			"name":  "Ivan",
			"phone": "+79991234567",
			"email": "ivan@example.com",
		},
	}
}

func TestRouter_BookingLifecycle(t *testing.T) {
	c := client{t: t, srv: newTestServer(t)}

	status, res := c.do(http.MethodPost, "/api/v1/admin/resources", adminToken, map[string]interface{}{
		"kind": "adventure_departure", "name": "Sunset cruise", "capacity": 3,
	})
	require.Equal(t, http.StatusCreated, status)
	resourceID := res["id"].(string)

	status, body := c.do(http.MethodPost, "/api/v1/bookings", "", bookingBody(resourceID, 2))
	require.Equal(t, http.StatusCreated, status)
	bookingID := body["booking"].(map[string]interface{})["id"].(string)
	assert.Equal(t, "pending", body["booking"].(map[string]interface{})["status"])
	assert.Equal(t, float64(1), body["availability"].(map[string]interface{})["available"])

	status, body = c.do(http.MethodPost, "/api/v1/bookings", "", bookingBody(resourceID, 2))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CAPACITY_EXHAUSTED", body["code"])

	status, body = c.do(http.MethodPost, "/api/v1/admin/bookings/"+bookingID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "approved", body["booking"].(map[string]interface{})["status"])
	assert.Equal(t, "admin-7", body["booking"].(map[string]interface{})["decidedBy"])

	status, body = c.do(http.MethodPost, "/api/v1/admin/bookings/"+bookingID+"/reject", adminToken,
		map[string]string{"reason": "too late"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])

	status, _ = c.do(http.MethodPost, "/api/v1/internal/payments/"+bookingID+"/confirm", paymentsToken,
		map[string]string{"paymentRef": "pay-77"})
	require.Equal(t, http.StatusOK, status)

	status, body = c.do(http.MethodPost, "/api/v1/internal/payments/"+bookingID+"/confirm", paymentsToken,
		map[string]string{"paymentRef": "pay-77"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])

	status, body = c.do(http.MethodDelete, "/api/v1/admin/bookings/"+bookingID, adminToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = c.do(http.MethodGet, "/api/v1/resources/"+resourceID+"/availability", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["committed"])

	status, body = c.do(http.MethodGet, "/api/v1/admin/resources/"+resourceID+"/bookings?status=confirmed", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["bookings"], 1)
}

func TestRouter_Errors(t *testing.T) {
	c := client{t: t, srv: newTestServer(t)}

	status, body := c.do(http.MethodPost, "/api/v1/bookings", "", bookingBody("missing", 1))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", body["code"])

	invalid := bookingBody("missing", 1)
	invalid["contact"] = map[string]string{"name": "Ivan", "phone": "nope", "email": "ivan@example.com"}
	status, body = c.do(http.MethodPost, "/api/v1/bookings", "", invalid)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["fields"])

	status, _ = c.do(http.MethodGet, "/api/v1/admin/bookings/unknown", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = c.do(http.MethodGet, "/api/v1/admin/bookings/unknown", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodPost, "/api/v1/internal/payments/unknown/confirm", adminToken,
		map[string]string{"paymentRef": "pay-1"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = c.do(http.MethodGet, "/api/v1/resources/unknown/availability", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_RejectReleasesAndRetire(t *testing.T) {
	c := client{t: t, srv: newTestServer(t)}

	status, res := c.do(http.MethodPost, "/api/v1/admin/resources", adminToken, map[string]interface{}{
		"kind": "vehicle", "name": "Toyota Land Cruiser",
	})
	require.Equal(t, http.StatusCreated, status)
	resourceID := res["id"].(string)
	assert.Equal(t, float64(1), res["capacity"])

	status, body := c.do(http.MethodPost, "/api/v1/bookings", "", bookingBody(resourceID, 1))
	require.Equal(t, http.StatusCreated, status)
	bookingID := body["booking"].(map[string]interface{})["id"].(string)

	status, body = c.do(http.MethodDelete, "/api/v1/admin/resources/"+resourceID, adminToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status, "pending booking blocks retirement")

	status, _ = c.do(http.MethodPost, "/api/v1/admin/bookings/"+bookingID+"/reject", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status, "reason is required")

	status, body = c.do(http.MethodPost, "/api/v1/admin/bookings/"+bookingID+"/reject", adminToken,
		map[string]string{"reason": "vehicle in service"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["availability"].(map[string]interface{})["available"])

	status, _ = c.do(http.MethodDelete, "/api/v1/admin/resources/"+resourceID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = c.do(http.MethodPost, "/api/v1/bookings", "", bookingBody(resourceID, 1))
	assert.Equal(t, http.StatusBadRequest, status, "retired resource is not bookable")
}
