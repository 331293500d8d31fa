package services

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ghuser/inventory/services/inventory/domain/models"
)

const (
	inStockPrefix  = "Items in stock: "
	reportListSep  = ", "
	itemInfoFormat = "%s: %s"
)

// ItemSource is the read surface a ReportManager reports on. *ItemManager
// satisfies it.
type ItemSource interface {
	InStock() []models.Item
	ItemsInCategory(category string) []models.Item
	Ref(sku models.SKU) (*ItemRef, bool)
}

// ReportManager produces text reports over one inventory. It holds a
// reference to the inventory, never a copy, so reports always reflect the
// current state.
type ReportManager struct {
	source ItemSource
}

// NewReportManager returns a ReportManager with no inventory bound. Until Init
// is called every report describes an empty inventory.
func NewReportManager() *ReportManager {
	return &ReportManager{}
}

// Init binds the inventory to report on, replacing any previous binding.
func (r *ReportManager) Init(source ItemSource) {
	r.source = source
}

// ReportInStock lists the names of the in-stock items in arrival order:
//
//	Items in stock: soccer ball, football
func (r *ReportManager) ReportInStock() string {
	if r.source == nil {
		return inStockPrefix
	}
	return inStockPrefix + joinNames(r.source.InStock())
}

// ReportCategory lists the names of the items in category in arrival order:
//
//	Items in sports: basket ball, soccer ball, football
func (r *ReportManager) ReportCategory(category string) string {
	prefix := fmt.Sprintf("Items in %s: ", category)
	if r.source == nil {
		return prefix
	}
	return prefix + joinNames(r.source.ItemsInCategory(category))
}

// CreateReporter returns a Reporter bound to the first item with the given
// SKU. It returns false when no item matches or no inventory is bound.
func (r *ReportManager) CreateReporter(sku models.SKU) (*Reporter, bool) {
	if r.source == nil {
		return nil, false
	}
	ref, ok := r.source.Ref(sku)
	if !ok {
		return nil, false
	}
	return &Reporter{ref: ref}, true
}

func joinNames(items []models.Item) string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return strings.Join(names, reportListSep)
}

// Reporter describes a single item.
type Reporter struct {
	ref *ItemRef
}

// ItemInfo returns one "field: value" line per item field in declaration
// order, reflecting the item's current state. It returns nil once the item
// has been deleted.
func (r *Reporter) ItemInfo() []string {
	item, ok := r.ref.Get()
	if !ok {
		return nil
	}

	values := map[string]string{
		models.FieldSKU:      item.SKU.String(),
		models.FieldName:     item.Name,
		models.FieldCategory: item.Category,
		models.FieldQuantity: strconv.Itoa(item.Quantity),
	}
	lines := make([]string, 0, len(models.FieldNames))
	for _, field := range models.FieldNames {
		lines = append(lines, fmt.Sprintf(itemInfoFormat, field, values[field]))
	}
	return lines
}

// WriteTo writes the ItemInfo lines to w, one per line.
func (r *Reporter) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range r.ItemInfo() {
		n, err := io.WriteString(w, line+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
