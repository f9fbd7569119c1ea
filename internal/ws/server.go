package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"thaniel-pos-services/internal/config"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Server streams inventory levels to dashboard clients. Each connection polls
// the store on the configured interval and pushes a snapshot whenever it
// changes, so the low-stock cards update without a page refresh.
type Server struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	cfg    config.Config

	upgrader websocket.Upgrader
}

func New(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config) *Server {
	return &Server{
		db:     db,
		logger: logger,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Env == "development" {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range cfg.CorsAllowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

type stockSnapshot struct {
	Type  string      `json:"type"`
	Items []stockItem `json:"items"`
}

type stockItem struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	CurrentStock float64 `json:"currentStock"`
	MinimumStock float64 `json:"minimumStock"`
	Low          bool    `json:"low"`
}

func (s *Server) StockStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	// Run the pump on the handler goroutine; the request context is canceled
	// as soon as ServeHTTP returns, which would tear the stream down.
	s.streamStock(r.Context(), conn)
}

func (s *Server) streamStock(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	// Drain client frames so pings and close handshakes are handled.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := s.cfg.WSStockPollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastSent []byte
	for {
		snapshot, err := s.loadSnapshot(ctx)
		if err != nil {
			s.logger.Warn("stock snapshot failed", zap.Error(err))
		} else {
			payload, err := json.Marshal(snapshot)
			if err == nil && string(payload) != string(lastSent) {
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
				lastSent = payload
			}
		}

		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) loadSnapshot(ctx context.Context) (*stockSnapshot, error) {
	rows, err := s.db.Query(ctx, `
		select id, name, unit, current_stock, minimum_stock
		from inventory_items
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshot := &stockSnapshot{Type: "stock_levels", Items: make([]stockItem, 0)}
	for rows.Next() {
		var item stockItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Unit, &item.CurrentStock, &item.MinimumStock); err != nil {
			return nil, err
		}
		item.Low = item.CurrentStock <= item.MinimumStock
		snapshot.Items = append(snapshot.Items, item)
	}
	return snapshot, rows.Err()
}
