package server

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"roulette/internal/roulette"
)

const (
	LOCAL_PLAYER_ID       = "player_id"
	DEFAULT_HISTORY_LIMIT = 50
)

type spinRequest struct {
	WagerType      string       `json:"wager_type"`
	StraightNumber *json.Number `json:"straight_number"`
	RangeSelector  string       `json:"range_selector"`
	Stake          json.Number  `json:"stake"`
}

type spinResponse struct {
	SettlementID  string          `json:"settlement_id"`
	OutcomeNumber int             `json:"outcome_number"`
	Color         roulette.Color  `json:"color"`
	Parity        roulette.Parity `json:"parity"`
	Range         roulette.Range  `json:"range"`
	Won           bool            `json:"won"`
	Multiplier    int64           `json:"multiplier"`
	Payout        int64           `json:"payout"`
	NewBalance    int64           `json:"new_balance"`
	Wager         roulette.Wager  `json:"wager"`
	SettledAt     time.Time       `json:"settled_at"`
}

// toWager converts the request body. Numbers that are not integers are
// reported with the code of the field they belong to.
func (r spinRequest) toWager() (roulette.Wager, error) {
	w := roulette.Wager{
		Type:          roulette.WagerType(strings.ToLower(strings.TrimSpace(r.WagerType))),
		RangeSelector: strings.TrimSpace(r.RangeSelector),
	}

	if r.StraightNumber != nil && w.Type == roulette.WagerStraight {
		n, err := strconv.Atoi(r.StraightNumber.String())
		if err != nil {
			return w, roulette.Errorf(roulette.CodeInvalidStraightNumber, "straight number %s is not an integer", r.StraightNumber)
		}
		w.StraightNumber = &n
	}

	stake, err := strconv.ParseInt(r.Stake.String(), 10, 64)
	if err != nil {
		// Type and companion problems still take precedence over the stake.
		typed := w
		typed.Stake = 1
		if verr := roulette.Validate(typed, roulette.Limits{}); verr != nil {
			return w, verr
		}
		return w, roulette.Errorf(roulette.CodeInvalidStake, "stake %q is not a whole number of units", r.Stake.String())
	}
	w.Stake = stake
	return w, nil
}

func requirePlayer(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Get(HEADER_PLAYER_ID))
	if id == "" {
		return writeError(c, fiber.StatusUnauthorized, CODE_MISSING_PLAYER_ID, HEADER_PLAYER_ID+" header is required")
	}
	c.Locals(LOCAL_PLAYER_ID, id)
	return c.Next()
}

func playerID(c *fiber.Ctx) string {
	id, _ := c.Locals(LOCAL_PLAYER_ID).(string)
	return id
}

func (s *FiberServer) spinHandler(c *fiber.Ctx) error {
	var req spinRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return writeError(c, fiber.StatusBadRequest, CODE_INVALID_REQUEST, "request body must be a JSON wager")
	}

	wager, err := req.toWager()
	if err != nil {
		return s.settlementError(c, err)
	}

	receipt, err := s.engine.Settle(c.UserContext(), playerID(c), wager)
	if err != nil {
		if receipt != nil {
			return s.unrecordedError(c, receipt, err)
		}
		return s.settlementError(c, err)
	}

	return c.JSON(spinResponse{
		SettlementID:  receipt.SettlementID,
		OutcomeNumber: receipt.Outcome.Number,
		Color:         receipt.Outcome.Color,
		Parity:        receipt.Outcome.Parity,
		Range:         receipt.Outcome.Range,
		Won:           receipt.Won,
		Multiplier:    receipt.Multiplier,
		Payout:        receipt.Payout,
		NewBalance:    receipt.NewBalance,
		Wager:         receipt.Wager,
		SettledAt:     receipt.SettledAt,
	})
}

func (s *FiberServer) balanceHandler(c *fiber.Ctx) error {
	id := playerID(c)
	balance, err := s.engine.Balance(c.UserContext(), id)
	if err != nil {
		return s.settlementError(c, err)
	}
	return c.JSON(fiber.Map{
		"player_id": id,
		"balance":   balance,
	})
}

func (s *FiberServer) historyHandler(c *fiber.Ctx) error {
	id := playerID(c)
	limit := c.QueryInt("limit", DEFAULT_HISTORY_LIMIT)

	records, err := s.engine.History(c.UserContext(), id, limit)
	if err != nil {
		return s.settlementError(c, err)
	}
	if records == nil {
		records = []roulette.Record{}
	}
	return c.JSON(fiber.Map{
		"player_id":   id,
		"settlements": records,
	})
}

// openAccountHandler is called by the identity layer on a player's first
// sign-in. Calling it again leaves the balance untouched.
func (s *FiberServer) openAccountHandler(c *fiber.Ctx) error {
	id := playerID(c)
	balance, err := s.engine.OpenAccount(c.UserContext(), id, s.cfg.StartingBalance)
	if err != nil {
		return s.settlementError(c, err)
	}
	return c.JSON(fiber.Map{
		"player_id": id,
		"balance":   balance,
	})
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	health := fiber.Map{
		"status": "up",
		"ledger": s.cfg.Backend,
		"feed": fiber.Map{
			"connected_clients": s.hub.ClientCount(),
		},
	}
	status := fiber.StatusOK
	if s.db != nil {
		stats := s.db.Health()
		health["database"] = stats
		if stats["status"] != "up" {
			status = fiber.StatusServiceUnavailable
		}
	}
	if s.cache != nil {
		stats := s.cache.Health()
		health["cache"] = stats
		if stats["status"] != "up" {
			status = fiber.StatusServiceUnavailable
		}
	}
	if status != fiber.StatusOK {
		health["status"] = "degraded"
	}
	return c.Status(status).JSON(health)
}
