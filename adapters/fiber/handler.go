package fiber

import (
	"errors"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/pkg/crypto"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session_token"

type verificationInput struct {
	Identifier string `json:"identifier" query:"identifier"`
	Token      string `json:"token"      query:"token"`
}

// session returns the session and user Protected resolved.
func (a *Adapter) session(c fiber.Ctx) error {
	session := SessionFromCtx(c)
	if session == nil {
		return handleAuthError(c, errNoSession)
	}

	return c.Status(http.StatusOK).JSON(core.SessionData{
		User:    UserFromCtx(c),
		Session: session,
	})
}

func (a *Adapter) signout(c fiber.Ctx) error {
	session := SessionFromCtx(c)
	if session == nil {
		return handleAuthError(c, errNoSession)
	}

	if _, err := a.handler.DeleteSession(c.Context(), session.SessionToken); err != nil {
		return handleAuthError(c, err)
	}

	c.ClearCookie(SessionCookie)
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "signed out successfully",
	})
}

// requestVerification sends a sign-in link to the identifier.
func (a *Adapter) requestVerification(c fiber.Ctx) error {
	var input verificationInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	identifier, err := normalizeEmail(input.Identifier)
	if err != nil {
		return handleAuthError(c, err)
	}

	token, err := crypto.GenerateToken()
	if err != nil {
		return handleAuthError(c, err)
	}

	link := a.consumeURL() + "?" + url.Values{
		"identifier": {identifier},
		"token":      {token},
	}.Encode()

	request, err := a.handler.CreateVerificationRequest(c.Context(), identifier, link, token, a.cfg.Secret, a.cfg.Verification)
	if err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"identifier": request.Identifier,
		"expires":    request.Expires,
	})
}

// consumeVerification redeems a token from the body (POST) or query (GET)
// and opens a session.
func (a *Adapter) consumeVerification(c fiber.Ctx) error {
	var input verificationInput
	bind := c.Bind().Body
	if c.Method() == fiber.MethodGet {
		bind = c.Bind().Query
	}
	if err := bind(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	if input.Identifier == "" {
		return handleAuthError(c, core.ErrIdentifierRequired)
	}
	if input.Token == "" {
		return handleAuthError(c, core.ErrTokenRequired)
	}

	data, err := a.handler.SignInWithVerification(c.Context(), input.Identifier, input.Token, a.cfg.Secret)
	if err != nil {
		return handleAuthError(c, err)
	}
	if data == nil {
		return handleAuthError(c, core.ErrInvalidToken)
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    data.Session.SessionToken,
		Path:     "/",
		Expires:  data.Session.Expires,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Status(http.StatusOK).JSON(data)
}

// normalizeEmail reduces input to its lowercased bare address, dropping any
// display name.
func normalizeEmail(input string) (string, error) {
	addr, err := mail.ParseAddress(input)
	if err != nil {
		return "", core.ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

// extractToken reads the session token from the Authorization header,
// falling back to the session cookie.
func extractToken(c fiber.Ctx) (string, error) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			return "", core.ErrInvalidAuthHeader
		}
		return header[len(prefix):], nil
	}

	if token := c.Cookies(SessionCookie); token != "" {
		return token, nil
	}
	return "", core.ErrMissingToken
}

// handleAuthError maps errors to appropriate HTTP responses
func handleAuthError(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	return c.Status(status).JSON(core.ErrorResponse{
		Error: err.Error(),
		Code:  status,
	})
}

// mapErrorToStatus maps docauth errors to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, core.ErrMissingToken),
		errors.Is(err, core.ErrInvalidToken),
		errors.Is(err, core.ErrInvalidAuthHeader),
		errors.Is(err, errNoSession):
		return http.StatusUnauthorized

	case errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrIdentifierRequired),
		errors.Is(err, core.ErrTokenRequired),
		errors.Is(err, core.ErrUserIDRequired),
		errors.Is(err, core.ErrProviderRequired):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrDuplicateKey):
		return http.StatusConflict

	case errors.Is(err, core.ErrDeliveryFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
