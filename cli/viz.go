// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and graph generation commands
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/viz"
)

// VizCommand dispatches `dealflow viz <subcommand>`.
func VizCommand(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
	if len(args) == 0 {
		return VizDashboardCommand(ctx, s, out, nil)
	}

	switch args[0] {
	case "pipeline":
		return VizGraphPipelineCommand(ctx, s, out, args[1:])
	case "clients":
		return VizGraphClientsCommand(ctx, s, out, args[1:])
	case "dashboard":
		return VizDashboardCommand(ctx, s, out, args[1:])
	default:
		return fmt.Errorf("unknown viz command: %s", args[0])
	}
}

// VizGraphPipelineCommand generates a deal pipeline graph.
func VizGraphPipelineCommand(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("viz pipeline", flag.ContinueOnError)
	fs.SetOutput(out)
	output := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "dot", "Output format: dot or svg")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := s.FetchDeals(ctx); err != nil {
		return err
	}

	var graph string
	var err error
	switch *format {
	case "dot":
		graph, err = viz.GeneratePipelineGraph(s.Deals())
	case "svg":
		graph, err = viz.RenderPipelineSVG(ctx, s.Deals())
	default:
		return fmt.Errorf("unknown format %q (valid: dot, svg)", *format)
	}
	if err != nil {
		return err
	}

	return writeGraph(out, *output, graph)
}

// VizGraphClientsCommand generates a client, deal and product graph.
func VizGraphClientsCommand(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("viz clients", flag.ContinueOnError)
	fs.SetOutput(out)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := s.FetchDeals(ctx); err != nil {
		return err
	}

	dot, err := viz.GenerateClientGraph(s.Deals())
	if err != nil {
		return err
	}
	return writeGraph(out, *output, dot)
}

func VizDashboardCommand(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
	if err := s.FetchDeals(ctx); err != nil {
		return fmt.Errorf("failed to generate dashboard stats: %w", err)
	}

	stats := viz.GenerateDashboardStats(s.Deals(), time.Now())
	_, err := fmt.Fprint(out, viz.RenderDashboard(stats))
	return err
}

func writeGraph(out io.Writer, path, graph string) error {
	if path != "" {
		return os.WriteFile(path, []byte(graph), 0644)
	}
	_, err := fmt.Fprintln(out, graph)
	return err
}
