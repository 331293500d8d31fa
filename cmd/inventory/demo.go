package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/spf13/cobra"

	"github.com/ghuser/inventory/pkg/app"
	"github.com/ghuser/inventory/pkg/config"
	"github.com/ghuser/inventory/pkg/events"
	"github.com/ghuser/inventory/pkg/logger"
	"github.com/ghuser/inventory/pkg/telemetry"
	"github.com/ghuser/inventory/services/inventory/application/services"
	"github.com/ghuser/inventory/services/inventory/domain"
	domainevents "github.com/ghuser/inventory/services/inventory/domain/events"
	"github.com/ghuser/inventory/services/inventory/domain/models"
)

const eventBuffer = 64

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the sample inventory session",
	Long: `Create a handful of items (some of them invalid), update and delete
a few, and print the stock reports and item info along the way.

Reports go to stdout, logs to stderr. Set PRINT_METRICS=true to dump
the collected metrics at the end.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := config.ValidateForProduction(cfg); err != nil {
			slog.Error("production config validation failed", "error", err)
			return err
		}
		return runDemo(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func runDemo(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.New(cfg)

	otelShutdown, registry, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		return err
	}
	defer otelShutdown(ctx) //nolint:errcheck

	eventBus := events.NewEventBus(log, eventBuffer)
	defer eventBus.Close() //nolint:errcheck

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := subscribeEventLog(subCtx, eventBus, log); err != nil {
		log.Error("failed to subscribe to item events", "error", err)
		return err
	}

	svc := services.New(&app.Application{
		Config:   cfg,
		Logger:   log,
		EventBus: eventBus,
	})
	log.Info("inventory ready", "version", version)

	if err := replay(ctx, svc, out, log); err != nil {
		return err
	}

	if cfg.PrintMetrics {
		fmt.Fprintln(out)
		if err := telemetry.WriteMetrics(out, registry); err != nil {
			return err
		}
	}
	return nil
}

// replay walks through the sample session: seven create calls of which four
// are valid, then an update, a category lookup, a delete and two reporter
// readings around a quantity change.
func replay(ctx context.Context, svc *services.Services, out io.Writer, log logger.Logger) error {
	inputs := []models.CreateItemInput{
		{Name: "basket ball", Category: "sports", Quantity: models.Quantity(0)},
		{Name: "asd", Category: "sports", Quantity: models.Quantity(0)},
		{Name: "soccer ball", Category: "sports", Quantity: models.Quantity(5)},
		{Name: "football", Category: "sports"},
		{Name: "football", Category: "sports", Quantity: models.Quantity(3)},
		{Name: "kitchen pot", Category: "cooking items", Quantity: models.Quantity(0)},
		{Name: "kitchen pot", Category: "cooking", Quantity: models.Quantity(3)},
	}

	skus := make(map[string]models.SKU, len(inputs))
	for _, in := range inputs {
		item, err := svc.Items.Create(ctx, in)
		if err != nil {
			log.InfoContext(ctx, "skipped invalid item", "name", in.Name, "error", err)
			continue
		}
		skus[item.Name] = item.SKU
	}

	p := &printer{w: out}
	p.items("All items", svc.Items.Items())
	p.line(svc.Reports.ReportInStock())

	svc.Items.Update(ctx, skus["soccer ball"], models.ItemPatch{Quantity: models.Quantity(0)})
	p.items("In stock", svc.Items.InStock())
	p.line(svc.Reports.ReportInStock())
	p.items("Sports", svc.Items.ItemsInCategory("sports"))
	p.line(svc.Reports.ReportCategory("sports"))

	svc.Items.Delete(ctx, skus["soccer ball"])
	p.items("After delete", svc.Items.Items())

	reporter, ok := svc.Reports.CreateReporter(skus["kitchen pot"])
	if !ok {
		return fmt.Errorf("create reporter for %s: %w", skus["kitchen pot"], domain.ErrItemNotFound)
	}
	p.info(reporter)
	svc.Items.Update(ctx, skus["kitchen pot"], models.ItemPatch{Quantity: models.Quantity(10)})
	p.info(reporter)

	return p.err
}

// subscribeEventLog logs every item event at debug level.
func subscribeEventLog(ctx context.Context, bus *events.EventBus, log logger.Logger) error {
	handler := func(ctx context.Context, msg *message.Message) error {
		var envelope struct {
			Inventory string      `json:"inventory"`
			Item      models.Item `json:"item"`
		}
		if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
			return fmt.Errorf("decode item event: %w", err)
		}
		log.DebugContext(ctx, "item event",
			"inventory", envelope.Inventory,
			"sku", envelope.Item.SKU,
			"message_id", msg.UUID,
		)
		return nil
	}

	for _, topic := range []string{
		domainevents.TopicItemCreated,
		domainevents.TopicItemUpdated,
		domainevents.TopicItemDeleted,
	} {
		errCh, err := bus.Subscribe(ctx, topic, handler)
		if err != nil {
			return err
		}
		go func() {
			for err := range errCh {
				log.ErrorContext(ctx, "item event handler failed", "topic", topic, "error", err)
			}
		}()
	}
	return nil
}

// printer writes the session transcript and keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s\n\n", s)
}

func (p *printer) items(title string, items []models.Item) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s (%d):\n", title, len(items))
	fmt.Fprintln(tw, "  SKU\tNAME\tCATEGORY\tQUANTITY")
	for _, it := range items {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\n", it.SKU, it.Name, it.Category, it.Quantity)
	}
	fmt.Fprintln(tw)
	p.err = tw.Flush()
}

func (p *printer) info(r *services.Reporter) {
	if p.err != nil {
		return
	}
	if _, p.err = fmt.Fprintln(p.w, "Item info:"); p.err != nil {
		return
	}
	for _, line := range r.ItemInfo() {
		if _, p.err = fmt.Fprintf(p.w, "- %s\n", line); p.err != nil {
			return
		}
	}
	_, p.err = fmt.Fprintln(p.w)
}
