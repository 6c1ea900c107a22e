package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/checkmoa/auth-service/internal/audit"
	"github.com/checkmoa/auth-service/internal/config"
	"github.com/checkmoa/auth-service/internal/es"
	"github.com/checkmoa/auth-service/internal/httpserver"
	"github.com/checkmoa/auth-service/internal/logging"
	"github.com/checkmoa/auth-service/internal/middleware"
	"github.com/checkmoa/auth-service/internal/mykafka"
	"github.com/checkmoa/auth-service/internal/repo"
	"github.com/checkmoa/auth-service/internal/service"
	loggingmw "github.com/checkmoa/auth-service/pkg/middleware/logging"
	"github.com/checkmoa/auth-service/pkg/tokens"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	gormRepo := &repo.GormRepo{DB: db}
	codec := tokens.NewCodec([]byte(cfg.JWTSecret))

	authSvc := &service.AuthService{
		Repo:                   gormRepo,
		Codec:                  codec,
		Blacklist:              &service.BlacklistService{Repo: gormRepo},
		AccessTokenExpiry:      cfg.AccessTokenExpiry,
		RefreshTokenExpiry:     cfg.RefreshTokenExpiry,
		RefreshChecksBlacklist: cfg.RefreshChecksBlacklist,
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := mykafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		authSvc.Events = producer
	}

	var auditIndexer *audit.Indexer
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(es.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
		})
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		auditIndexer = audit.NewIndexer(esClient, "")
		authSvc.Audit = auditIndexer
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:  &httpserver.AuthHTTP{Svc: authSvc},
		AuditHandler: &httpserver.AuditHTTP{Indexer: auditIndexer},
		AuthMW:       middleware.NewAuth(codec, authSvc),
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
