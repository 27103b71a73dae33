package feed

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"roulette/internal/roulette"
)

const (
	BROADCAST_BUFFER = 100
	WRITE_TIMEOUT    = 10 * time.Second

	MessageOutcome    = "outcome"
	MessageSettlement = "settlement"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Message is the envelope of everything sent to feed clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// OutcomeEvent is the public view of a settlement: what was bet and where the
// ball landed, without the player or their balance.
type OutcomeEvent struct {
	SettlementID string             `json:"settlement_id"`
	Number       int                `json:"outcome_number"`
	Color        roulette.Color     `json:"color"`
	Parity       roulette.Parity    `json:"parity"`
	Range        roulette.Range     `json:"range"`
	WagerType    roulette.WagerType `json:"wager_type"`
	Won          bool               `json:"won"`
	Payout       int64              `json:"payout"`
	SettledAt    time.Time          `json:"settled_at"`
}

func outcomeEvent(rec roulette.Record) OutcomeEvent {
	return OutcomeEvent{
		SettlementID: rec.ID,
		Number:       rec.Outcome.Number,
		Color:        rec.Outcome.Color,
		Parity:       rec.Outcome.Parity,
		Range:        rec.Outcome.Range,
		WagerType:    rec.Wager.Type,
		Won:          rec.Won,
		Payout:       rec.Payout,
		SettledAt:    rec.CreatedAt,
	}
}

type Client struct {
	conn     Conn
	playerID string
	mu       sync.Mutex
}

// Hub fans settlements out to websocket clients. Every client sees the public
// outcome; a client registered for the settling player gets the full record.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan roulette.Record
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan roulette.Record, BROADCAST_BUFFER),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until Stop is called, then closes every client.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] Client connected: %s (Total: %d)", client.name(), total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.conn.Close()
				log.Printf("[WS] Client disconnected: %s (Total: %d)", client.name(), len(h.clients))
			}
			h.mu.Unlock()

		case rec := <-h.broadcast:
			h.fanOut(rec)

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				client.conn.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			log.Println("[WS] Hub stopped")
			return
		}
	}
}

func (h *Hub) fanOut(rec roulette.Record) {
	public, err := json.Marshal(Message{Type: MessageOutcome, Data: outcomeEvent(rec)})
	if err != nil {
		log.Printf("[WS] Marshal error: %v", err)
		return
	}
	private, err := json.Marshal(Message{Type: MessageSettlement, Data: rec})
	if err != nil {
		log.Printf("[WS] Marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		data := public
		if client.playerID != "" && client.playerID == rec.PlayerID {
			data = private
		}
		go client.send(data)
	}
}

// Stop ends Run. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish queues a recorded settlement for broadcast. It never blocks; when
// the buffer is full the settlement is dropped from the feed.
func (h *Hub) Publish(rec roulette.Record) {
	select {
	case h.broadcast <- rec:
	default:
		log.Printf("[WS] Broadcast channel full, dropping settlement %s", rec.ID)
	}
}

// Register adds a connection. An empty playerID subscribes to the public feed
// only. It returns nil once the hub has stopped.
func (h *Hub) Register(conn Conn, playerID string) *Client {
	client := &Client{conn: conn, playerID: playerID}
	select {
	case h.register <- client:
		return client
	case <-h.done:
		conn.Close()
		return nil
	}
}

func (h *Hub) Unregister(client *Client) {
	if client == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send writes one message to the client.
func (c *Client) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.write(data)
}

func (c *Client) send(data []byte) {
	if err := c.write(data); err != nil {
		log.Printf("[WS] Write error for %s: %v", c.name(), err)
	}
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) name() string {
	if c.playerID == "" {
		return "anonymous"
	}
	return c.playerID
}
