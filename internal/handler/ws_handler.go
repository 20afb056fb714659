package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/middleware"
	"github.com/stemsi/exquiz-backend/internal/response"
	"github.com/stemsi/exquiz-backend/internal/service"
	ws "github.com/stemsi/exquiz-backend/internal/websocket"
)

const (
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams leaderboard changes over WebSocket.
type WSHandler struct {
	rankingService *service.RankingService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rankingService *service.RankingService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rankingService: rankingService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// RankingsStream godoc
// WS /ws/v1/rankings/stream?token=...
// Sends a snapshot on connect and a fresh one after every board update.
func (h *WSHandler) RankingsStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int("user_id", claims.UserID).Logger()
	wsLog.Info().Msg("Rankings viewer connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.rankingService.Subscribe(ctx)
	defer pubsub.Close()
	updates := pubsub.Channel()

	// Only this goroutine reads; all writes stay on the loop below.
	requests := make(chan ws.Action, 4)
	ws.ExtendOnPong(conn)
	go func() {
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			select {
			case requests <- msg.Action:
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := h.sendSnapshot(ctx, conn); err != nil {
		wsLog.Debug().Err(err).Msg("Initial snapshot failed")
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Rankings viewer disconnected")
			return

		case _, ok := <-updates:
			if !ok {
				return
			}
			err = h.sendSnapshot(ctx, conn)

		case action := <-requests:
			switch action {
			case ws.ActionPing:
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionRefresh:
				err = h.sendSnapshot(ctx, conn)
			default:
				err = ws.WriteError(conn, "unknown action: "+string(action))
			}

		case <-keepAlive.C:
			err = ws.WritePing(conn)
		}

		if err != nil {
			wsLog.Debug().Err(err).Msg("Write failed, closing stream")
			return
		}
	}
}

func (h *WSHandler) sendSnapshot(ctx context.Context, conn *websocket.Conn) error {
	fetchCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	rankings, err := h.rankingService.Top(fetchCtx, 0)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load rankings")
		return ws.WriteError(conn, "rankings unavailable")
	}

	return ws.WriteTyped(conn, ws.RankingsResponse{
		Event:     ws.EventRankings,
		Rankings:  rankings,
		UpdatedAt: time.Now().Unix(),
	})
}
