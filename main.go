// ABOUTME: Entry point for the dealflow CLI
// ABOUTME: Routes to the web UI, terminal UI, MCP server or CLI commands based on arguments
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/dealflow/cli"
	"github.com/harperreed/dealflow/config"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	apiURL := flag.String("api-url", "", "Deal API base URL (default: $DEALFLOW_API_URL or http://localhost:4000)")
	profile := flag.String("profile", "", "Preference profile name (default: $DEALFLOW_PROFILE or default)")
	envFile := flag.String("env", "", "Load environment variables from this file")
	backend := flag.String("prefs", "", "Preference backend: badger, charm, redis or memory")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	// Handle version flag
	if *showVersion {
		fmt.Printf("dealflow version %s\n", version)
		os.Exit(0)
	}

	// Get remaining args after flags
	args := flag.Args()

	// If no command specified, show usage
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	if *profile != "" {
		cfg.Profile = *profile
	}
	if *backend != "" {
		cfg.PrefsBackend = *backend
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args[0], args[1:]); err != nil {
		stop()
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) error {
	env, err := cli.OpenEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	s := env.NewStore(cfg.Profile)
	out := os.Stdout

	// Route to top-level command
	switch command {
	case "web":
		return cli.WebCommand(ctx, env, out, args)
	case "tui":
		return cli.TUICommand(ctx, s, env.NewEngine(s))
	case "mcp":
		return cli.MCPCommand(ctx, s, env.NewEngine(s), version)
	case "crm":
		e := env.NewEngine(s)
		defer e.Wait()
		return cli.CRMCommand(ctx, s, e, out, args)
	case "viz":
		return cli.VizCommand(ctx, s, out, args)
	case "prefs":
		return cli.PrefsCommand(ctx, s, cfg.DataDir, out, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Printf(`dealflow v%s - Sales pipeline board

USAGE:
  dealflow [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --api-url <url>        Deal API base URL (default: http://localhost:4000)
  --profile <name>       Preference profile (default: default)
  --prefs <backend>      Preference backend: badger, charm, redis, memory
  --env <file>           Load environment variables from a file

COMMANDS:
  web                    Serve the browser UI
  tui                    Full-screen terminal UI
  crm                    Deal management commands
  viz                    Visualization commands
  mcp                    Start MCP server on stdio
  prefs                  Show or change saved preferences

WEB:
  dealflow web
    --port <n>                Port to listen on (default: $DEALFLOW_WEB_PORT or 8080)
    --session-ttl <duration>  Evict idle browser sessions (default: 30m)

CRM COMMANDS:
  dealflow crm list-deals       List deals
    --query <text>               Search client, product, stage and description
    --stage <stage>              Filter by stage
    --page <n>                   Show one page of 10 rows

  dealflow crm add-deal         Add a new deal
    --client <name>              Client name (required)
    --product <name>             Product name (required)
    --stage <stage>              Stage (default: Lead Generated)
    --description <text>         Notes

  dealflow crm update-deal [flags] <id>   Update only the fields passed
    --client, --product, --stage, --description
    Note: flags must come before the deal ID

  dealflow crm move-deal <id> <stage|deal-id>   Drop a deal on a stage or another deal
  dealflow crm delete-deal --yes <id>           Delete a deal
  dealflow crm list-entities                    List clients and products

VIZ COMMANDS:
  dealflow viz dashboard        Pipeline overview (default)
  dealflow viz pipeline         Pipeline graph
    --format <dot|svg>           Output format (default: dot)
    --output <file>              Output file (default: stdout)
  dealflow viz clients          Client, deal and product graph
    --output <file>              Output file (default: stdout)

PREFS COMMANDS:
  dealflow prefs show
  dealflow prefs set <view|theme|column.<field>|kanban.<field>> <value>
  dealflow prefs sync [status|now|auto|host|wipe]   Charm cloud sync for preferences

STAGES:
  Lead Generated, Contacted, Application Submitted, Application Under Review,
  Deal Finalized, Payment Confirmed, Completed, Lost

EXAMPLES:
  # Run the reference API and the browser UI
  dealsrv --seed seed.yaml &
  dealflow web --port 8080

  # Move deal 4 to Contacted
  dealflow crm move-deal 4 Contacted

  # Render the pipeline as SVG
  dealflow viz pipeline --format svg --output pipeline.svg

`, version)
}
