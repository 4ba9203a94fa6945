package handlers

import (
	"log"
	"strconv"

	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// respondError maps a service error onto the response envelope. Only the
// sentinel's message reaches the client; wrapped row context stays in the
// log. Validation failures keep their detail since it describes the request.
func respondError(c *fiber.Ctx, err error) error {
	code := domain.CodeOf(err)
	message := domain.MessageOf(err)

	switch domain.KindOf(err) {
	case domain.KindValidation:
		return response.Fail(c, fiber.StatusBadRequest, code, err.Error(), false)
	case domain.KindNotFound:
		return response.Fail(c, fiber.StatusNotFound, code, message, false)
	case domain.KindDenied:
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return response.Fail(c, fiber.StatusUnauthorized, code, "Invalid username or password", false)
		}
		if errors.Is(err, domain.ErrUserInactive) {
			return response.Fail(c, fiber.StatusForbidden, code, "User account is inactive", false)
		}
		log.Printf("⚠️ %s %s denied: %v", c.Method(), c.Path(), err)
		return response.Fail(c, fiber.StatusConflict, code, message, false)
	case domain.KindConflict:
		log.Printf("⚠️ %s %s conflict: %v", c.Method(), c.Path(), err)
		return response.Fail(c, fiber.StatusConflict, code, message, true)
	case domain.KindStorage:
		log.Printf("❌ %s %s: %+v", c.Method(), c.Path(), err)
		return response.ServiceUnavailable(c, "Service temporarily unavailable, please try again")
	default:
		log.Printf("❌ %s %s: %+v", c.Method(), c.Path(), err)
		return response.InternalServerError(c, "Internal server error")
	}
}

// paramID parses a positive numeric route parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// currentUserID returns the authenticated staff user set by AuthMiddleware
func currentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}
