package server

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"roulette/internal/roulette"
	"roulette/internal/settlement"
)

// Transport level codes; settlement failures use roulette.Code.
const (
	CODE_MISSING_PLAYER_ID = "MissingPlayerID"
	CODE_INVALID_REQUEST   = "InvalidRequest"
	CODE_RATE_LIMITED      = "RateLimited"
	CODE_NOT_FOUND         = "NotFound"
)

type errorResponse struct {
	ErrorCode    string `json:"error_code"`
	Message      string `json:"message"`
	Retryable    bool   `json:"retryable,omitempty"`
	SettlementID string `json:"settlement_id,omitempty"`
	NewBalance   *int64 `json:"new_balance,omitempty"`
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorResponse{ErrorCode: code, Message: message})
}

// statusFor maps a settlement code to its HTTP status.
func statusFor(code roulette.Code) int {
	switch code {
	case roulette.CodeInvalidWagerType, roulette.CodeInvalidStraightNumber,
		roulette.CodeInvalidRangeSelector, roulette.CodeInvalidStake:
		return fiber.StatusBadRequest
	case roulette.CodeInsufficientFunds:
		return fiber.StatusPaymentRequired
	case roulette.CodeAccountNotFound:
		return fiber.StatusNotFound
	case roulette.CodeGeneratorUnavailable, roulette.CodeStorageError:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func (s *FiberServer) settlementError(c *fiber.Ctx, err error) error {
	re, ok := roulette.AsError(err)
	if !ok {
		log.Printf("[SERVER] Unclassified error on %s %s: %v", c.Method(), c.Path(), err)
		re = roulette.Wrap(roulette.CodeInternalError, err, "internal error")
	}

	status := statusFor(re.Code)
	if status == fiber.StatusInternalServerError {
		log.Printf("[SERVER] %s %s player %s: %v", c.Method(), c.Path(), playerID(c), err)
		// The cause may carry storage details.
		return c.Status(status).JSON(errorResponse{ErrorCode: string(re.Code), Message: "internal error"})
	}
	return c.Status(status).JSON(errorResponse{
		ErrorCode: string(re.Code),
		Message:   re.Message,
		Retryable: re.Retryable(),
	})
}

// unrecordedError reports a settlement whose balance change was applied but
// whose history record is missing. The client gets the settlement id and the
// balance so it does not place the wager again.
func (s *FiberServer) unrecordedError(c *fiber.Ctx, receipt *settlement.Receipt, err error) error {
	log.Printf("[SERVER] settlement %s for player %s applied without record: %v", receipt.SettlementID, receipt.PlayerID, err)
	balance := receipt.NewBalance
	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
		ErrorCode:    string(roulette.CodeInternalError),
		Message:      "settlement applied but not recorded",
		SettlementID: receipt.SettlementID,
		NewBalance:   &balance,
	})
}

// errorHandler renders errors returned by fiber itself, such as unknown routes.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := CODE_INVALID_REQUEST
		if fe.Code == fiber.StatusNotFound {
			code = CODE_NOT_FOUND
		}
		return writeError(c, fe.Code, code, fe.Message)
	}
	log.Printf("[SERVER] Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return writeError(c, fiber.StatusInternalServerError, string(roulette.CodeInternalError), "internal error")
}
