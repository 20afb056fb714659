package websocket

import "github.com/stemsi/exquiz-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is the only message shape the client sends.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventRankings Event = "rankings"
	EventPong     Event = "pong"
)

// RankingsResponse carries a full leaderboard snapshot.
type RankingsResponse struct {
	Event     Event                `json:"event"`
	Rankings  []model.RankingEntry `json:"rankings"`
	UpdatedAt int64                `json:"updated_at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
