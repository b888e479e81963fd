// ABOUTME: Preference CLI commands
// ABOUTME: Shows and edits persisted view, theme, column and kanban settings, and charm sync
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/dealflow/charm"
	"github.com/harperreed/dealflow/prefs"
	"github.com/harperreed/dealflow/store"
)

// PrefsCommand dispatches `dealflow prefs <subcommand>`.
func PrefsCommand(ctx context.Context, s *store.Store, dataDir string, out io.Writer, args []string) error {
	if len(args) == 0 {
		return PrefsShowCommand(s, out, nil)
	}

	switch args[0] {
	case "show":
		return PrefsShowCommand(s, out, args[1:])
	case "set":
		return PrefsSetCommand(ctx, s, out, args[1:])
	case "sync":
		return charm.SyncCommand(dataDir, out, args[1:])
	default:
		return fmt.Errorf("unknown prefs command: %s", args[0])
	}
}

func PrefsShowCommand(s *store.Store, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("prefs show", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := s.Prefs()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tVALUE")
	_, _ = fmt.Fprintln(w, "---\t-----")
	_, _ = fmt.Fprintf(w, "view\t%s\n", p.View)
	_, _ = fmt.Fprintf(w, "theme\t%s\n", p.Theme)
	for _, field := range p.Columns.Fields() {
		visible, _ := p.Columns.Get(field)
		_, _ = fmt.Fprintf(w, "column.%s\t%v\n", field, visible)
	}
	for _, field := range p.Kanban.Fields() {
		visible, _ := p.Kanban.Get(field)
		_, _ = fmt.Fprintf(w, "kanban.%s\t%v\n", field, visible)
	}
	return w.Flush()
}

// PrefsSetCommand handles `prefs set <key> <value>` where key is view, theme,
// column.<field> or kanban.<field>.
func PrefsSetCommand(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("prefs set", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: prefs set <view|theme|column.<field>|kanban.<field>> <value>")
	}
	key, value := fs.Arg(0), fs.Arg(1)

	var err error
	switch {
	case key == "view":
		var v prefs.ViewMode
		if v, err = prefs.ParseViewMode(value); err == nil {
			err = s.SetCurrentView(ctx, v)
		}
	case key == "theme":
		var t prefs.Theme
		if t, err = prefs.ParseTheme(value); err == nil {
			err = s.SetTheme(ctx, t)
		}
	case strings.HasPrefix(key, "column."):
		var visible bool
		if visible, err = strconv.ParseBool(value); err == nil {
			err = s.SetColumnVisible(ctx, strings.TrimPrefix(key, "column."), visible)
		}
	case strings.HasPrefix(key, "kanban."):
		var visible bool
		if visible, err = strconv.ParseBool(value); err == nil {
			err = s.SetKanbanMetadataVisible(ctx, strings.TrimPrefix(key, "kanban."), visible)
		}
	default:
		return fmt.Errorf("unknown preference %q", key)
	}
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	_, _ = fmt.Fprintf(out, "✓ %s = %s\n", key, value)
	return nil
}
