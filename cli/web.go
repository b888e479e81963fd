// ABOUTME: Web UI subcommand
// ABOUTME: Serves the browser table and kanban views with per-browser sessions
package cli

import (
	"context"
	"flag"
	"io"

	"github.com/harperreed/dealflow/web"
)

// WebCommand starts the browser UI and blocks until ctx is cancelled.
func WebCommand(ctx context.Context, env *Env, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	fs.SetOutput(out)
	port := fs.Int("port", env.Config.WebPort, "Port to listen on")
	ttl := fs.Duration("session-ttl", env.Config.SessionTTL, "Evict browser sessions idle this long")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := web.NewServer(env, web.Options{SessionTTL: *ttl})
	if err != nil {
		return err
	}
	return server.Start(ctx, *port)
}
