// Package broadcast позволяет оператору запустить рассылку вручную.
package broadcast

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/luminary-journal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/luminary-journal/internal/http/response"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
	"github.com/magabrotheeeer/luminary-journal/internal/services/scheduler"
)

// Broadcaster выполняет один запуск рассылки.
type Broadcaster interface {
	Broadcast(ctx context.Context) (scheduler.Report, error)
}

type Handler struct {
	log         *slog.Logger
	broadcaster Broadcaster
}

func New(log *slog.Logger, broadcaster Broadcaster) *Handler {
	return &Handler{
		log:         log,
		broadcaster: broadcaster,
	}
}

// ServeHTTP запускает рассылку и возвращает её итог.
//
// @Summary      Ручной запуск рассылки
// @Description  Выполняет один запуск ежедневной рассылки аффирмаций.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /admin/broadcast [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.broadcast"
	log := h.log.With(slog.String("op", op))
	if operator, ok := r.Context().Value(middlewarectx.Operator).(string); ok {
		log = log.With(slog.String("operator", operator))
	}

	report, err := h.broadcaster.Broadcast(r.Context())
	if err != nil {
		log.Error("manual broadcast failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("broadcast failed"))
		return
	}

	log.Info("manual broadcast finished", slog.String("run_id", report.RunID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"run_id": report.RunID,
		"total":  len(report.Results),
		"failed": report.Failed(),
	}))
}
