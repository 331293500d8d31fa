package services

import (
	"github.com/ghuser/inventory/pkg/app"
)

// Services is the application-layer service container for this bounded context.
type Services struct {
	Items   *ItemManager
	Reports *ReportManager
}

// New wires an empty inventory and a ReportManager bound to it.
func New(a *app.Application) *Services {
	opts := []ManagerOption{WithLogger(a.Logger)}
	if a.Config != nil && a.Config.InventoryName != "" {
		opts = append(opts, WithName(a.Config.InventoryName))
	}
	if a.EventBus != nil {
		opts = append(opts, WithPublisher(a.EventBus))
	}

	items := NewItemManager(opts...)
	reports := NewReportManager()
	reports.Init(items)

	return &Services{
		Items:   items,
		Reports: reports,
	}
}
