package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"linkbot/internal/config"
	"linkbot/internal/http-server/handlers/errors"
	"linkbot/internal/http-server/handlers/links"
	"linkbot/internal/http-server/handlers/stats"
	"linkbot/internal/http-server/middleware/authenticate"
	"linkbot/internal/http-server/middleware/timeout"
	"linkbot/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	links.Core
	stats.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, handler))
		rootApi.Route("/links", func(ln chi.Router) {
			ln.Post("/", links.Submit(log, handler))
			ln.Get("/", links.ByOwner(log, handler))
			ln.Get("/{id}", links.Get(log, handler))
			ln.Delete("/{id}", links.Deactivate(log, handler))
		})
		rootApi.Route("/stats", func(st chi.Router) {
			st.Get("/top", stats.Top(log, handler))
			st.Get("/user/{id}", stats.User(log, handler))
			st.Get("/chat", stats.Chat(log, handler))
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
