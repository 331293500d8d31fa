package app

import (
	"github.com/ghuser/inventory/pkg/config"
	"github.com/ghuser/inventory/pkg/events"
	"github.com/ghuser/inventory/pkg/logger"
)

// Application holds shared infrastructure dependencies for all services.
//
// Logging: app.Logger is backed by a trace-aware handler. Use slog's context
// methods and trace_id and span_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "item created", "sku", sku)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config   *config.Config
	Logger   logger.Logger
	EventBus *events.EventBus // nil disables item events
}
