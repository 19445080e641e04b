package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/padraicbc/f1picks/config"
	"github.com/padraicbc/f1picks/db"
	"github.com/padraicbc/f1picks/handlers"
	"github.com/padraicbc/f1picks/importer"
	applog "github.com/padraicbc/f1picks/logger"
	"github.com/padraicbc/f1picks/openf1"
	"github.com/padraicbc/f1picks/store"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	bdb := db.Setup(cfg)
	defer bdb.Close()

	if err := db.CreateTables(context.Background(), bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	st := store.New(bdb)
	f1 := openf1.New(
		openf1.WithBaseURL(cfg.OpenF1BaseURL),
		openf1.WithTimeout(cfg.OpenF1Timeout),
		openf1.WithLogger(logger),
	)
	engine := importer.New(st, f1, importer.WithLogger(logger), importer.WithWorkers(cfg.ScoreWorkers))
	h := handlers.New(st, engine, cfg.JWTKey())

	e := echo.New()
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*", "Authorization"},
		AllowCredentials: true,
	}))

	h.Register(e)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &http.Server{
		Addr:         cfg.Port,
		Handler:      e,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	serve := func() error {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		return s.ListenAndServe()
	}
	if !cfg.Debug {
		if len(cfg.TLSDomains) == 0 {
			logger.Fatal("TLS_DOMAINS must be set outside debug mode")
		}
		autoTLS := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Cache:      autocert.DirCache(".cache"),
			HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
		}
		s.Addr = ":443"
		s.TLSConfig = autoTLS.TLSConfig()
		// ACME http-01 challenges and the redirect to https.
		go func() {
			if err := http.ListenAndServe(":80", autoTLS.HTTPHandler(nil)); err != nil {
				logger.Error("acme listener exited", zap.Error(err))
			}
		}()
		serve = func() error {
			logger.Info("starting server", zap.String("mode", "tls"), zap.Strings("domains", cfg.TLSDomains))
			return s.ListenAndServeTLS("", "")
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	if err := serve(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
