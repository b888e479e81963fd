// ABOUTME: CLI commands for syncing preferences through Charm KV
// ABOUTME: Backs `dealflow prefs sync` (status, now, auto, host, wipe)

package charm

import (
	"flag"
	"fmt"
	"io"
)

// SyncCommand dispatches `dealflow prefs sync <subcommand>`.
func SyncCommand(dataDir string, out io.Writer, args []string) error {
	if len(args) == 0 {
		return SyncStatusCommand(dataDir, out, nil)
	}

	switch args[0] {
	case "status":
		return SyncStatusCommand(dataDir, out, args[1:])
	case "now":
		return SyncNowCommand(dataDir, out, args[1:])
	case "auto":
		return SetAutoSyncCommand(dataDir, out, args[1:])
	case "host":
		return SetHostCommand(dataDir, out, args[1:])
	case "wipe":
		return SyncWipeCommand(dataDir, out, args[1:])
	default:
		return fmt.Errorf("unknown sync command: %s", args[0])
	}
}

func SyncStatusCommand(dataDir string, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("prefs sync status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfigFrom(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, _ = fmt.Fprintln(out, "Preference Sync Status")
	_, _ = fmt.Fprintln(out, "──────────────────────")
	_, _ = fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
	_, _ = fmt.Fprintf(out, "Auto-sync: %v\n", cfg.AutoSync)

	c, err := NewClient(cfg)
	if err != nil {
		_, _ = fmt.Fprintln(out, "\nStatus: Not connected")
		return nil //nolint:nilerr // not connected is a state to report, not a failure
	}

	id, err := c.ID()
	if err != nil {
		_, _ = fmt.Fprintln(out, "\nStatus: Connected (ID unavailable)")
	} else {
		_, _ = fmt.Fprintln(out, "\nStatus: Connected to Charm Cloud")
		_, _ = fmt.Fprintf(out, "ID:        %s\n", id)
	}

	if keys, err := c.KeysWithPrefix(nil); err == nil {
		_, _ = fmt.Fprintf(out, "Keys:      %d\n", len(keys))
	}
	return nil
}

func SyncNowCommand(dataDir string, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("prefs sync now", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfigFrom(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, err := NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	_, _ = fmt.Fprintln(out, "✓ Synced")
	return nil
}

func SetAutoSyncCommand(dataDir string, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("prefs sync auto", flag.ContinueOnError)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *enable == *disable {
		return fmt.Errorf("usage: dealflow prefs sync auto --enable|--disable")
	}

	cfg, err := LoadConfigFrom(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.SetAutoSync(*enable); err != nil {
		return fmt.Errorf("failed to save auto-sync: %w", err)
	}

	if *enable {
		_, _ = fmt.Fprintln(out, "✓ Auto-sync enabled")
	} else {
		_, _ = fmt.Fprintln(out, "✓ Auto-sync disabled")
	}
	return nil
}

func SetHostCommand(dataDir string, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("prefs sync host", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dealflow prefs sync host <hostname>")
	}

	cfg, err := LoadConfigFrom(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.SetHost(fs.Arg(0)); err != nil {
		return fmt.Errorf("failed to save host: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Charm host set to %s\n", cfg.Host)
	return nil
}

// SyncWipeCommand deletes every stored preference. Requires --confirm.
func SyncWipeCommand(dataDir string, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("prefs sync wipe", flag.ContinueOnError)
	confirm := fs.Bool("confirm", false, "Confirm preference wipe")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*confirm {
		_, _ = fmt.Fprintln(out, "WARNING: This will delete ALL stored preferences!")
		_, _ = fmt.Fprintln(out, "\nTo confirm, run:")
		_, _ = fmt.Fprintln(out, "  dealflow prefs sync wipe --confirm")
		return nil
	}

	cfg, err := LoadConfigFrom(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, err := NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}

	_, _ = fmt.Fprintln(out, "✓ All preferences wiped")
	return nil
}
