package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mjl-/addrlist/addrapi"
	"github.com/mjl-/addrlist/buildvar"
	"github.com/mjl-/addrlist/metrics"
	"github.com/mjl-/addrlist/mlog"
)

func cmdServe(c *cmd) {
	c.help = `Start the HTTP server.

The JSON API for parsing and formatting address lists is served at /api/, using
the parser options and filter from the config file. Prometheus metrics are
served at /metrics.

The server stops on SIGINT or SIGTERM, waiting for pending requests.
`
	args := c.Parse()
	if len(args) != 0 {
		c.Usage()
	}
	conf := mustLoadConfig()

	api, err := addrapi.NewHandler(conf.Options(), conf.Filter)
	xcheckf(err, "api handler")

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           newRouter(c.log, api),
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		c.log.Print("starting http server", slog.String("listen", conf.Listen), slog.String("version", buildvar.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Fatalx("http server", err)
		}
	}()

	<-ctx.Done()
	c.log.Print("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(sctx)
	c.log.Check(err, "shutting down http server")
}

// newRouter returns the handler for the HTTP server, with the API at /api/ and
// metrics at /metrics.
func newRouter(log mlog.Log, api http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()
			defer func() {
				if x := recover(); x != nil {
					metrics.PanicInc("serve")
					log.Error("unhandled panic in http handler", slog.Any("panic", x), slog.String("path", req.URL.Path))
					panic(x)
				}
			}()
			next.ServeHTTP(ww, req)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			handler := "other"
			if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
				handler = rctx.RoutePattern()
			}
			metrics.HTTPServerObserve(handler, req.Method, status, start)
			log.Debug("http request",
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)))
		})
	})

	r.Handle("/api/*", api)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/", http.StatusSeeOther)
	})
	return r
}
