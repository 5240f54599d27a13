package links

import (
	"errors"
	"fmt"
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
	SubmitLink(sub *entity.LinkSubmission) (*entity.Link, error)
	GetLinkInfo(id int64) (*entity.Link, error)
	LinksByOwner(ownerId int64) ([]*entity.Link, error)
	DeactivateLink(id int64) (bool, error)
}

// Submit handles POST /v1/links: validates the payload, posts the
// announcement and schedules reminders if an event time was given.
func Submit(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.links")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var submission entity.LinkSubmission
		if err := render.Bind(r, &submission); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(
			slog.Int64("owner_id", submission.OwnerId),
		)

		link, err := handler.SubmitLink(&submission)
		if err != nil {
			logger.Error("submit link", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Submit link: %v", err)))
			return
		}
		logger.With(sl.Link(link.Id)).Debug("link submitted")

		render.JSON(w, r, response.Ok(link))
	}
}

// Get handles GET /v1/links/{id}.
func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.links")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := linkId(r)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid link id"))
			return
		}
		logger = logger.With(sl.Link(id))

		link, err := handler.GetLinkInfo(id)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				render.Status(r, 404)
				render.JSON(w, r, response.Error("Link not found"))
				return
			}
			logger.Error("get link", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to load link"))
			return
		}

		render.JSON(w, r, response.Ok(link))
	}
}

// ByOwner handles GET /v1/links?owner_id=N.
func ByOwner(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.links")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ownerId, err := strconv.ParseInt(r.URL.Query().Get("owner_id"), 10, 64)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid or missing owner_id"))
			return
		}

		links, err := handler.LinksByOwner(ownerId)
		if err != nil {
			logger.Error("list links", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to list links"))
			return
		}

		render.JSON(w, r, response.Ok(links))
	}
}

// Deactivate handles DELETE /v1/links/{id}: the link stops being
// deliverable and both pending reminders are cancelled.
func Deactivate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.links")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := linkId(r)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid link id"))
			return
		}
		logger = logger.With(sl.Link(id))

		ok, err := handler.DeactivateLink(id)
		if err != nil {
			logger.Error("deactivate link", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error("Failed to deactivate link"))
			return
		}
		if !ok {
			render.Status(r, 404)
			render.JSON(w, r, response.Error("Link not found or already inactive"))
			return
		}
		logger.Debug("link deactivated")

		render.JSON(w, r, response.Ok(nil))
	}
}

func linkId(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
