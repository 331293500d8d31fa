package services

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/ghuser/inventory/pkg/logger"
)

type managerMetrics struct {
	created  metric.Int64Counter
	rejected metric.Int64Counter
	updated  metric.Int64Counter
	deleted  metric.Int64Counter
	stored   metric.Int64UpDownCounter
}

// newManagerMetrics registers the manager's instruments on meter. An
// instrument that fails to register is replaced by a no-op one.
func newManagerMetrics(meter metric.Meter, log logger.Logger) managerMetrics {
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{item}"))
		if err != nil {
			log.Warn("metric instrument unavailable", "instrument", name, "error", err)
			c, _ = fallback.Int64Counter(name)
		}
		return c
	}

	stored, err := meter.Int64UpDownCounter("inventory.items.stored",
		metric.WithDescription("Items currently held by the inventory"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		log.Warn("metric instrument unavailable", "instrument", "inventory.items.stored", "error", err)
		stored, _ = fallback.Int64UpDownCounter("inventory.items.stored")
	}

	return managerMetrics{
		created:  counter("inventory.items.created", "Items accepted by the inventory"),
		rejected: counter("inventory.items.rejected", "Create calls rejected by validation"),
		updated:  counter("inventory.items.updated", "Updates that changed at least one field"),
		deleted:  counter("inventory.items.deleted", "Items removed from the inventory"),
		stored:   stored,
	}
}
