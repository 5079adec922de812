package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmpark/foyer/internal/api"
	"github.com/jmpark/foyer/internal/api/middleware"
	"github.com/jmpark/foyer/internal/config"
	"github.com/jmpark/foyer/internal/face"
	"github.com/jmpark/foyer/internal/imaging"
	"github.com/jmpark/foyer/internal/logger"
	"github.com/jmpark/foyer/internal/repository"
	"github.com/jmpark/foyer/internal/storage"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.NewDefault()
	logger.SetDefault(appLog)

	// Visitor gallery: the only shared mutable state in the service.
	store := face.OpenStore(cfg.Face.DBPath, appLog)

	extractor := face.NewRemoteExtractor(&face.RemoteExtractorConfig{
		BaseURL: cfg.Face.Extractor.BaseURL,
		Timeout: cfg.Face.Extractor.Timeout,
	})

	// Debug capture sink. Failures here never reach the request path.
	var sink imaging.CaptureSink = imaging.NopSink{}
	if cfg.Image.DebugSave {
		captureStore, err := storage.New(&storage.Config{
			Type:      cfg.Storage.Type,
			LocalRoot: cfg.Image.SaveRoot,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
		})
		if err != nil {
			appLog.WithError(err).Warn("capture storage unavailable, debug save disabled")
		} else {
			sink = imaging.NewStorageSink(captureStore, appLog)
		}
	}

	// Audit log is best-effort: the gate runs without it.
	var events face.EventRecorder
	if db, err := repository.InitDB(&cfg.Database); err != nil {
		appLog.WithError(err).Warn("audit database unavailable")
	} else {
		events = repository.NewEventRepository(db)
	}

	ctx := context.Background()

	var index face.Index
	if cfg.Face.Index.Enabled {
		faceIndex, err := repository.NewFaceIndex(&repository.FaceIndexConfig{
			Host:       cfg.Face.Index.Host,
			Port:       cfg.Face.Index.Port,
			Collection: cfg.Face.Index.Collection,
			APIKey:     cfg.Face.Index.APIKey,
			UseTLS:     cfg.Face.Index.UseTLS,
			Dimension:  cfg.Face.Index.Dimension,
		})
		if err != nil {
			appLog.WithError(err).Fatal("failed to initialize face index")
		}
		defer faceIndex.Close()
		if err := faceIndex.EnsureCollection(ctx); err != nil {
			appLog.WithError(err).Fatal("failed to ensure face index collection")
		}
		index = faceIndex
	}

	faceService := face.NewService(store, extractor, sink, events, index, appLog, &face.ServiceConfig{
		SimilarityThreshold: cfg.Face.SimilarityThreshold,
		Image: imaging.Options{
			TargetSize:   cfg.Image.TargetSize,
			FlipVertical: cfg.Image.FlipVertical,
			CropCenter:   cfg.Image.CropCenter,
			Gamma:        cfg.Image.Gamma,
			Contrast:     cfg.Image.Contrast,
			Brightness:   cfg.Image.Brightness,
		},
	})

	router := api.SetupRouter(faceService, middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}, appLog, cfg.Server.Mode)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLog.WithFields(logger.Fields{
			"port":      cfg.Server.Port,
			"visitors":  store.Count(),
			"threshold": cfg.Face.SimilarityThreshold,
		}).Info("face gate started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Fatal("server forced to shutdown")
	}

	appLog.Info("server exited")
}
