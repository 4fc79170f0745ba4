package create_booking

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// phoneRegex международный формат: необязательный +, 7-15 цифр, допускаются пробелы, дефисы и скобки
var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,18}[0-9]$`)

// ValidationError ошибка валидации конкретного поля
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors список ошибок валидации
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// requestValidator валидатор запроса на бронирование
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()

	// Регистрация возможна только с корректным именем тега, ошибка означает опечатку в коде
	if err := v.RegisterValidation("phone", validatePhone); err != nil {
		panic(fmt.Sprintf("create_booking: register phone validator: %v", err))
	}

	return &requestValidator{validate: v}
}

func validatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return phoneRegex.MatchString(phone) && digits >= 7 && digits <= 15
}

// validateRequest проверяет структуру запроса без обращения к хранилищу
func (v *requestValidator) validateRequest(req *Request) error {
	normalizeRequest(req)

	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return fmt.Errorf("%w: %w", ErrInvalidInput, translateValidationErrors(validationErrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return nil
}

// validateQuantity проверяет количество против статической вместимости ресурса
func validateQuantity(quantity int, res *domain.Resource) error {
	if res.IsRetired() {
		return fmt.Errorf("%w: resource %s is retired", ErrUnknownResource, res.ID)
	}

	if res.Kind == domain.KindVehicle && quantity != domain.VehicleCapacity {
		return fmt.Errorf("%w: %w", ErrInvalidInput, ValidationErrors{{
			Field:   "Quantity",
			Message: fmt.Sprintf("vehicle bookings must have quantity %d", domain.VehicleCapacity),
		}})
	}

	if quantity > res.Capacity {
		return fmt.Errorf("%w: %w", ErrInvalidInput, ValidationErrors{{
			Field:   "Quantity",
			Message: fmt.Sprintf("quantity (%d) exceeds capacity (%d)", quantity, res.Capacity),
		}})
	}

	return nil
}

func normalizeRequest(req *Request) {
	req.ResourceID = strings.TrimSpace(req.ResourceID)
	req.Contact.Name = strings.TrimSpace(req.Contact.Name)
	req.Contact.Phone = strings.TrimSpace(req.Contact.Phone)
	req.Contact.Email = strings.TrimSpace(req.Contact.Email)
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	validationErrors := make(ValidationErrors, 0, len(errs))

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "phone":
			message = fmt.Sprintf("%s must be a valid phone number (e.g., +79991234567)", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
