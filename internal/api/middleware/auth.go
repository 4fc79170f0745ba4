package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/domain"
)

type contextKey string

const actorKey contextKey = "actor"

// HeaderAdminID заголовок с идентификатором администратора, принимающего решение
const HeaderAdminID = "X-Admin-ID"

const (
	msgMissingToken   = "отсутствует токен авторизации"
	msgInvalidToken   = "неверный токен авторизации"
	msgMissingAdminID = "отсутствует ID администратора"
)

// AdminAuth пропускает запросы с токеном администратора
// Идентификатор администратора из X-Admin-ID попадает в контекст как actor
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !checkBearer(w, r, token) {
				return
			}

			adminID := strings.TrimSpace(r.Header.Get(HeaderAdminID))
			if adminID == "" || len(adminID) > domain.MaxActorLength {
				handlers.RespondUnauthorized(w, msgMissingAdminID)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), adminID)))
		})
	}
}

// ServiceAuth пропускает запросы внутреннего сервиса с его токеном, actor фиксирован
func ServiceAuth(token, actor string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !checkBearer(w, r, token) {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// WithActor кладет идентификатор инициатора запроса в контекст
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor извлекает идентификатор инициатора запроса из контекста
func GetActor(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey).(string)
	return actor, ok && actor != ""
}

func checkBearer(w http.ResponseWriter, r *http.Request, expected string) bool {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		handlers.RespondUnauthorized(w, msgMissingToken)
		return false
	}

	provided := strings.TrimPrefix(header, "Bearer ")
	if expected == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		handlers.RespondForbidden(w, msgInvalidToken)
		return false
	}

	return true
}
