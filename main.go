package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thaniel-pos-services/internal/config"
	"thaniel-pos-services/internal/db"
	httpapi "thaniel-pos-services/internal/http"
	"thaniel-pos-services/internal/inventory"
	"thaniel-pos-services/internal/logger"
	"thaniel-pos-services/internal/payment"
	"thaniel-pos-services/internal/queue"
	"thaniel-pos-services/internal/storage"
	"thaniel-pos-services/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		log.Info("rabbitmq enabled", zap.String("eventsQueue", queue.QueueNotifications))
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without worker", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := queue.EnsureEventTopology(qc); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq topology failed; continuing without worker", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}

		queueClient = qc
		if qc != nil {
			defer qc.Close()
		}

		if queueClient != nil {
			if cfg.RabbitMQWorkerMode == "daemon" {
				log.Info("notification worker enabled", zap.String("mode", "daemon"))
				go func() {
					err := queueClient.ConsumeWithRetry(queue.QueueNotifications, func(ctx context.Context, body []byte) error {
						return queue.ProcessEventToNotifications(ctx, pool, body)
					}, 5, 5*time.Second)
					if err != nil {
						log.Error("consumer stopped", zap.Error(err))
					}
				}()
			} else {
				log.Info("notification worker disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
			}
		}
	} else {
		log.Info("notification worker disabled (RABBITMQ_URL is empty)")
	}

	var paymentClient *payment.Client
	if cfg.PaymentServerKey != "" {
		paymentClient, err = payment.New(payment.Config{
			BaseURL:    cfg.PaymentGatewayURL,
			ServerKey:  cfg.PaymentServerKey,
			Production: cfg.PaymentProduction,
		})
		if err != nil {
			log.Fatal("payment client setup failed", zap.Error(err))
		}
		log.Info("payment gateway enabled", zap.String("base", cfg.PaymentGatewayURL))
	} else {
		log.Info("payment gateway disabled (PAYMENT_SERVER_KEY is empty)")
	}

	var objectStore *storage.ObjectStore
	if cfg.ObjectStoreBucket != "" {
		objectStore, err = storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
		})
		if err != nil {
			log.Fatal("object store setup failed", zap.Error(err))
		}
		log.Info("object store enabled", zap.String("bucket", cfg.ObjectStoreBucket))
	} else {
		log.Info("object store disabled (OBJECT_STORE_BUCKET is empty)")
	}

	inventoryService := inventory.NewService(inventory.NewPgStore(pool), log)
	wsServer := ws.New(pool, log, cfg)

	apiServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			DB:        pool,
			Logger:    log,
			Config:    cfg,
			Queue:     queueClient,
			Inventory: inventoryService,
			Payments:  paymentClient,
			Objects:   objectStore,
			WS:        wsServer,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("pos api ready", zap.String("base", "/api"))
		log.Info("stock stream ready", zap.String("base", "/ws/stock"))
		log.Info("pos service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
