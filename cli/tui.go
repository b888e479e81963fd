// ABOUTME: Terminal UI subcommand
// ABOUTME: Refuses to start without a terminal, then runs the full-screen deal board
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/harperreed/dealflow/kanban"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/tui"
	"github.com/harperreed/dealflow/views"
	"golang.org/x/term"
)

// TUICommand runs the interactive terminal UI on stdin/stdout.
func TUICommand(ctx context.Context, s *store.Store, e *kanban.Engine) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui needs an interactive terminal (try `dealflow crm list-deals`)")
	}

	// Log lines would tear the full-screen display.
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	return tui.Run(ctx, s, e, views.DefaultDelays())
}
