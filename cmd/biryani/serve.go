package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/biryani-api/internal/classifier"
	"github.com/Brownie44l1/biryani-api/internal/handlers"
	"github.com/Brownie44l1/biryani-api/internal/model"
	"github.com/Brownie44l1/biryani-api/internal/preprocess"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the classifier over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	comps, err := buildProvider(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer comps.Close()

	pre, err := preprocess.New(preprocess.ImageSize)
	if err != nil {
		return err
	}

	// the server answers /health while the model is still loading
	loadCtx, stopLoad := context.WithCancel(ctx)
	models := model.Load(loadCtx, comps.provider)
	defer func() {
		stopLoad()
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := models.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to release the model")
		}
	}()

	handler := handlers.NewHandler(models, classifier.New(pre), handlers.Options{
		Transcode:      cfg.Preprocess.Transcode,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("strategy", cfg.Model.Strategy).
			Msg("server starting")
		log.Info().Msg("  GET  /health        - Health check")
		log.Info().Msg("  POST /predict       - Raw tensor prediction")
		log.Info().Msg("  POST /predict/image - Predict from image upload")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
