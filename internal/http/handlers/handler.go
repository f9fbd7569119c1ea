package handlers

import (
	"thaniel-pos-services/internal/config"
	"thaniel-pos-services/internal/inventory"
	"thaniel-pos-services/internal/payment"
	"thaniel-pos-services/internal/queue"
	"thaniel-pos-services/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Handler struct {
	DB        *pgxpool.Pool
	Logger    *zap.Logger
	Config    config.Config
	Queue     *queue.Client
	Inventory *inventory.Service
	Payments  *payment.Client
	Objects   *storage.ObjectStore
}
