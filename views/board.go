// ABOUTME: Kanban view model grouping deals into one column per stage
// ABOUTME: Every stage gets a column, even when it holds no deals
package views

import (
	"github.com/harperreed/dealflow/models"
)

type StageColumn struct {
	Stage models.Stage
	Deals []models.Deal
}

func (c StageColumn) Count() int {
	return len(c.Deals)
}

// GroupByStage returns the eight pipeline columns in display order.
// Deals with an unknown stage are left out.
func GroupByStage(deals []models.Deal) []StageColumn {
	stages := models.Stages()
	cols := make([]StageColumn, len(stages))
	for i, s := range stages {
		cols[i] = StageColumn{Stage: s, Deals: []models.Deal{}}
	}
	for _, d := range deals {
		if i := d.Stage.Index(); i >= 0 {
			cols[i].Deals = append(cols[i].Deals, d)
		}
	}
	return cols
}
