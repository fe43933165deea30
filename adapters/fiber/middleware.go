package fiber

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/docauth/core"
)

// Locals keys set by Protected.
const (
	LocalUser    = "user"
	LocalSession = "session"
)

// Protected validates the session token, renewing the session when due, and
// stores the user and session in the context for downstream handlers.
func (a *Adapter) Protected() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, err := extractToken(c)
		if err != nil {
			return handleAuthError(c, err)
		}

		data, err := a.handler.GetSessionData(c.Context(), token)
		if err != nil {
			return handleAuthError(c, err)
		}
		if data == nil {
			return handleAuthError(c, core.ErrInvalidToken)
		}

		c.Locals(LocalUser, data.User)
		c.Locals(LocalSession, data.Session)

		return c.Next()
	}
}

// UserFromCtx returns the user Protected stored, or nil.
func UserFromCtx(c fiber.Ctx) *core.User {
	user, _ := c.Locals(LocalUser).(*core.User)
	return user
}

// SessionFromCtx returns the session Protected stored, or nil.
func SessionFromCtx(c fiber.Ctx) *core.Session {
	session, _ := c.Locals(LocalSession).(*core.Session)
	return session
}

var errNoSession = errors.New("no session in context")
