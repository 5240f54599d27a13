package stats

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"linkbot/entity"
	"linkbot/lib/api/response"
	"linkbot/lib/sl"
)

type Core interface {
	MyStats(userId int64) (*entity.UserStats, error)
	TopBy(metric entity.StatsMetric, limit int) ([]*entity.UserStats, error)
	ChatTotals() (*entity.ChatTotals, error)
}

const defaultTopLimit = 10

// Top handles GET /v1/stats/top?metric=messages|requests&limit=N.
func Top(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.stats")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		metric := entity.StatsMetric(r.URL.Query().Get("metric"))
		switch metric {
		case entity.MetricMessages, entity.MetricRequests:
		case "":
			metric = entity.MetricMessages
		default:
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Unknown metric, use messages or requests"))
			return
		}

		limit := defaultTopLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 100 {
				render.Status(r, 400)
				render.JSON(w, r, response.Error("Invalid limit"))
				return
			}
			limit = parsed
		}

		top, err := handler.TopBy(metric, limit)
		if err != nil {
			logger.Error("load leaderboard", slog.String("metric", string(metric)), sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to load leaderboard"))
			return
		}

		render.JSON(w, r, response.Ok(top))
	}
}

// User handles GET /v1/stats/user/{id}.
func User(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.stats")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid user id"))
			return
		}

		userStats, err := handler.MyStats(userId)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				render.Status(r, 404)
				render.JSON(w, r, response.Error("No stats for this user"))
				return
			}
			logger.Error("load user stats", slog.Int64("user_id", userId), sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to load stats"))
			return
		}

		render.JSON(w, r, response.Ok(userStats))
	}
}

// Chat handles GET /v1/stats/chat.
func Chat(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.stats")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		totals, err := handler.ChatTotals()
		if err != nil {
			logger.Error("load chat totals", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to load chat stats"))
			return
		}

		render.JSON(w, r, response.Ok(totals))
	}
}
