package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/luminary-journal/internal/http/response"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/jwt"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// Operator ключ контекста с subject токена.
const Operator Key = "operator"

// TokenParser проверяет токен оператора (см. jwt.MakerImpl).
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// AdminMiddleware пропускает только запросы с действующим токеном роли admin.
// Без токена или с негодным токеном отвечает 401, с другой ролью 403.
func AdminMiddleware(tokens TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			claims, err := tokens.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			if claims.Role != jwt.RoleAdmin {
				log.Warn("token without admin role", slog.String("subject", claims.Subject), slog.String("role", claims.Role))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin role required"))
				return
			}

			ctx := context.WithValue(r.Context(), Operator, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
