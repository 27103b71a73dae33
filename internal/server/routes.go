package server

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"roulette/internal/feed"
)

const HEADER_PLAYER_ID = "X-Player-ID"

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Accept,Authorization,Content-Type," + HEADER_PLAYER_ID,
		AllowCredentials: false, // credentials require explicit origins
		MaxAge:           300,
	}))

	s.App.Get("/health", s.healthHandler)

	api := s.App.Group("/api/v1", requirePlayer)
	api.Post("/players", s.openAccountHandler)
	api.Get("/balance", s.balanceHandler)
	api.Get("/history", s.historyHandler)
	api.Post("/roulette/spin", s.spinHandler)

	s.App.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		// Only the gateway header identifies a player; without it the
		// connection gets the public feed.
		c.Locals(LOCAL_PLAYER_ID, strings.TrimSpace(c.Get(HEADER_PLAYER_ID)))
		return c.Next()
	})
	s.App.Get("/ws", websocket.New(s.feedHandler))
}

// feedHandler streams recorded settlements. A connection that names a player
// also receives that player's full settlement records.
func (s *FiberServer) feedHandler(conn *websocket.Conn) {
	playerID, _ := conn.Locals(LOCAL_PLAYER_ID).(string)

	client := s.hub.Register(conn, playerID)
	if client == nil {
		return
	}
	defer s.hub.Unregister(client)

	if err := client.Send(feed.Message{Type: "welcome", Data: fiber.Map{"player_id": playerID}}); err != nil {
		log.Printf("[WS] Welcome failed: %v", err)
		return
	}

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			client.Send(feed.Message{Type: "pong"})
		}
	}
}
