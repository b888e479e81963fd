// ABOUTME: Table view model: search filtering, pagination and column headers
// ABOUTME: Shared by the browser table partial and the terminal table view
package views

import (
	"strings"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/prefs"
)

// PageSize is the number of rows on one table page.
const PageSize = 10

// FilterDeals keeps deals whose client, product, stage or description contain
// query, ignoring case. A blank query keeps everything.
func FilterDeals(deals []models.Deal, query string) []models.Deal {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]models.Deal{}, deals...)
	}

	out := []models.Deal{}
	for _, d := range deals {
		if strings.Contains(strings.ToLower(d.ClientName), q) ||
			strings.Contains(strings.ToLower(d.ProductName), q) ||
			strings.Contains(strings.ToLower(string(d.Stage)), q) ||
			strings.Contains(strings.ToLower(d.Description), q) {
			out = append(out, d)
		}
	}
	return out
}

type Page struct {
	Number  int
	Total   int
	HasPrev bool
	HasNext bool
}

func (p Page) Prev() int { return p.Number - 1 }
func (p Page) Next() int { return p.Number + 1 }

// Paginate returns the rows on a 1-based page. Out-of-range pages are
// clamped; an empty list is one empty page.
func Paginate(deals []models.Deal, page, size int) ([]models.Deal, Page) {
	if size <= 0 {
		size = PageSize
	}
	total := (len(deals) + size - 1) / size
	if total == 0 {
		total = 1
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	start := (page - 1) * size
	end := start + size
	if end > len(deals) {
		end = len(deals)
	}

	return append([]models.Deal{}, deals[start:end]...), Page{
		Number:  page,
		Total:   total,
		HasPrev: page > 1,
		HasNext: page < total,
	}
}

type Column struct {
	Field   string
	Label   string
	Visible bool
}

var columnLabels = map[string]string{
	"clientName":  "Client Name",
	"productName": "Product Name",
	"stage":       "Stage",
	"createdAt":   "Created At",
	"actions":     "Actions",
}

// FieldLabel returns the display label for a table or card field.
func FieldLabel(field string) string {
	if l, ok := columnLabels[field]; ok {
		return l
	}
	return field
}

// TableColumns lists every column in order with its visibility.
func TableColumns(vis prefs.ColumnVisibility) []Column {
	cols := make([]Column, 0, len(vis.Fields()))
	for _, f := range vis.Fields() {
		visible, _ := vis.Get(f)
		cols = append(cols, Column{Field: f, Label: FieldLabel(f), Visible: visible})
	}
	return cols
}

// ToggleLabel is the button text for flipping a field's visibility.
func ToggleLabel(field string, visible bool) string {
	if visible {
		return "Hide " + field
	}
	return "Show " + field
}
