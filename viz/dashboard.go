// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Provides ASCII pipeline overview for the deal board
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/dealflow/models"
)

type DashboardStats struct {
	// Pipeline overview, one entry per stage in display order
	Pipeline []PipelineStageStats

	TotalDeals    int
	TotalClients  int
	TotalProducts int
	OpenDeals     int

	// Deals created in the last 7 days, newest first
	RecentDeals []RecentDeal

	// Open deals older than 30 days
	StaleDeals []RecentDeal
}

type PipelineStageStats struct {
	Stage models.Stage
	Count int
}

type RecentDeal struct {
	ID         models.DealID
	ClientName string
	Stage      models.Stage
	DaysSince  int
}

// StageCounts tallies deals per stage. Unknown stages are ignored.
func StageCounts(deals []models.Deal) map[models.Stage]int {
	counts := make(map[models.Stage]int, len(models.Stages()))
	for _, deal := range deals {
		if deal.Stage.Valid() {
			counts[deal.Stage]++
		}
	}
	return counts
}

func GenerateDashboardStats(deals []models.Deal, now time.Time) *DashboardStats {
	stats := &DashboardStats{TotalDeals: len(deals)}

	counts := StageCounts(deals)
	for _, stage := range models.Stages() {
		stats.Pipeline = append(stats.Pipeline, PipelineStageStats{Stage: stage, Count: counts[stage]})
	}

	clients := make(map[string]struct{})
	products := make(map[string]struct{})
	for _, deal := range deals {
		clients[deal.ClientName] = struct{}{}
		products[deal.ProductName] = struct{}{}

		open := deal.Stage != models.StageCompleted && deal.Stage != models.StageLost
		if open {
			stats.OpenDeals++
		}

		created, err := time.Parse(time.RFC3339, deal.CreatedAt)
		if err != nil {
			continue
		}
		daysSince := int(now.Sub(created).Hours() / 24)
		item := RecentDeal{ID: deal.ID, ClientName: deal.ClientName, Stage: deal.Stage, DaysSince: daysSince}
		if daysSince < 7 {
			stats.RecentDeals = append(stats.RecentDeals, item)
		} else if open && daysSince > 30 {
			stats.StaleDeals = append(stats.StaleDeals, item)
		}
	}
	stats.TotalClients = len(clients)
	stats.TotalProducts = len(products)

	sort.SliceStable(stats.RecentDeals, func(i, j int) bool {
		return stats.RecentDeals[i].DaysSince < stats.RecentDeals[j].DaysSince
	})

	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  DEALFLOW PIPELINE DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderPipeline(&out, stats.Pipeline)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  💼 %d deals (%d open)  👤 %d clients  📦 %d products\n\n",
		stats.TotalDeals, stats.OpenDeals, stats.TotalClients, stats.TotalProducts))

	if len(stats.RecentDeals) > 0 {
		out.WriteString("RECENT\n")
		for _, d := range stats.RecentDeals {
			out.WriteString(fmt.Sprintf("  #%-4d %-24s %s\n", d.ID, d.ClientName, d.Stage))
		}
		out.WriteString("\n")
	}

	if len(stats.StaleDeals) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		out.WriteString(fmt.Sprintf("  ⚠️  %d open deals - created 30+ days ago\n", len(stats.StaleDeals)))
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline []PipelineStageStats) {
	maxCount := 0
	for _, pstats := range pipeline {
		if pstats.Count > maxCount {
			maxCount = pstats.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, pstats := range pipeline {
		// 0-10 blocks
		barLength := (pstats.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-24s %s  %2d\n", pstats.Stage, bar, pstats.Count))
	}
}
