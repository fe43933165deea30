// Package fiber mounts the docauth HTTP surface on a Fiber app.
package fiber

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/docauth/core"
	"github.com/lborres/docauth/services"
)

type Adapter struct {
	app     *fiber.App
	handler core.AuthHandler
	cfg     core.RouteConfig
}

var _ core.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

// RegisterRoutes mounts every registry endpoint under cfg.BasePath. Protected
// endpoints run behind Protected.
func (a *Adapter) RegisterRoutes(handler core.AuthHandler, cfg core.RouteConfig) error {
	a.handler = handler
	a.cfg = cfg

	handlers := map[string]fiber.Handler{
		services.OpGetSession:          a.session,
		services.OpSignOut:             a.signout,
		services.OpRequestVerification: a.requestVerification,
		services.OpConsumeVerification: a.consumeVerification,
	}

	api := a.app.Group(cfg.BasePath)
	for _, ep := range services.NewEndpointRegistry().Endpoints() {
		h, ok := handlers[ep.Metadata.OperationID]
		if !ok {
			return fmt.Errorf("no handler for operation %q", ep.Metadata.OperationID)
		}

		if ep.Protected {
			api.Add([]string{ep.Method}, ep.Path, a.Protected(), h)
			continue
		}
		api.Add([]string{ep.Method}, ep.Path, h)
	}

	return nil
}

// consumeURL is the link sent in verification messages.
func (a *Adapter) consumeURL() string {
	return strings.TrimSuffix(a.cfg.BaseURL, "/") + a.cfg.BasePath + "/verification/consume"
}
