// ABOUTME: Pipeline graph generation using graphviz
// ABOUTME: Renders deal counts per stage as a chained DOT or SVG graph
package viz

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/dealflow/models"
)

type buildFunc func(graph *cgraph.Graph) error

// GeneratePipelineGraph returns a DOT graph with one node per stage, chained in
// display order. Lost hangs off the chain instead of terminating it.
func GeneratePipelineGraph(deals []models.Deal) (string, error) {
	return render(context.Background(), graphviz.XDOT, pipelineBuilder(deals))
}

// RenderPipelineSVG is GeneratePipelineGraph laid out as SVG for the browser.
func RenderPipelineSVG(ctx context.Context, deals []models.Deal) (string, error) {
	return render(ctx, graphviz.SVG, pipelineBuilder(deals))
}

func pipelineBuilder(deals []models.Deal) buildFunc {
	counts := StageCounts(deals)
	return func(graph *cgraph.Graph) error {
		graph.SetRankDir(cgraph.LRRank)
		graph.SetLabel(fmt.Sprintf("Pipeline (%d deals)", len(deals)))

		nodes := make(map[models.Stage]*cgraph.Node)
		for _, stage := range models.Stages() {
			node, err := graph.CreateNodeByName(stage.String())
			if err != nil {
				return fmt.Errorf("failed to create node %s: %w", stage, err)
			}
			node.SetShape("box")
			node.SetLabel(fmt.Sprintf("%s (%d)", stage, counts[stage]))
			if counts[stage] > 0 {
				node.SetStyle("filled")
				node.SetFillColor("lightblue")
			}
			nodes[stage] = node
		}

		// Chain every stage except Lost; Lost branches from the first stage.
		var prev *cgraph.Node
		for _, stage := range models.Stages() {
			if stage == models.StageLost {
				continue
			}
			if prev != nil {
				if _, err := graph.CreateEdgeByName("", prev, nodes[stage]); err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
			}
			prev = nodes[stage]
		}

		edge, err := graph.CreateEdgeByName("lost", nodes[models.DefaultStage], nodes[models.StageLost])
		if err != nil {
			return fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetStyle("dashed")
		return nil
	}
}

func render(ctx context.Context, format graphviz.Format, build buildFunc) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			log.Printf("[viz] error closing graphviz: %v", err)
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			log.Printf("[viz] error closing graph: %v", err)
		}
	}()

	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
