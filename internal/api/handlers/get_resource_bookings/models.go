package get_resource_bookings

import (
	"fmt"
	"strconv"

	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
)

const maxLimit = 1000

// ToServiceRequest формирует запрос к сервису из query параметров
func ToServiceRequest(resourceID, statusStr, limitStr string) (*models.ListResourceBookingsRequest, error) {
	req := &models.ListResourceBookingsRequest{
		ResourceID: resourceID,
	}

	// Парсим status если указан
	if statusStr != "" {
		req.Status = &statusStr
	}

	// Парсим limit если указан
	if limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 || limit > maxLimit {
			return nil, fmt.Errorf("invalid limit value %q", limitStr)
		}
		req.Limit = limit
	}

	return req, nil
}
