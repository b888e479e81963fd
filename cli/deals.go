// ABOUTME: Deal CLI commands
// ABOUTME: Human-friendly commands for listing, creating, moving and deleting deals
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harperreed/dealflow/kanban"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/views"
)

// CRMCommand dispatches `dealflow crm <subcommand>`.
func CRMCommand(ctx context.Context, s *store.Store, e *kanban.Engine, out io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("crm requires a subcommand (list-deals, add-deal, update-deal, move-deal, delete-deal, list-entities)")
	}

	switch args[0] {
	case "list-deals":
		return ListDealsCommand(ctx, s, out, args[1:])
	case "add-deal":
		return AddDealCommand(ctx, s, out, args[1:])
	case "update-deal":
		return UpdateDealCommand(ctx, s, out, args[1:])
	case "move-deal":
		return MoveDealCommand(ctx, s, e, out, args[1:])
	case "delete-deal":
		return DeleteDealCommand(ctx, s, out, args[1:])
	case "list-entities":
		return ListEntitiesCommand(ctx, s, out, args[1:])
	default:
		return fmt.Errorf("unknown crm command: %s", args[0])
	}
}

// ListDealsCommand lists deals, optionally filtered and paged.
func ListDealsCommand(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list-deals", flag.ContinueOnError)
	fs.SetOutput(out)
	query := fs.String("query", "", "Search client, product, stage and description")
	stage := fs.String("stage", "", "Filter by stage")
	page := fs.Int("page", 0, "Show one page of 10 rows (0 shows all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *stage != "" {
		if _, err := models.ParseStage(*stage); err != nil {
			return err
		}
	}

	if err := s.FetchDeals(ctx); err != nil {
		return err
	}

	deals := views.FilterDeals(s.Deals(), *query)
	if *stage != "" {
		filtered := []models.Deal{}
		for _, d := range deals {
			if d.Stage == models.Stage(*stage) {
				filtered = append(filtered, d)
			}
		}
		deals = filtered
	}

	if len(deals) == 0 {
		_, _ = fmt.Fprintln(out, "No deals found")
		return nil
	}

	var pageInfo views.Page
	if *page > 0 {
		deals, pageInfo = views.Paginate(deals, *page, views.PageSize)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCLIENT\tPRODUCT\tSTAGE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t-------\t-----\t-------")
	for _, d := range deals {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.ClientName, d.ProductName, d.Stage, views.FormatDate(d.CreatedAt))
	}
	_ = w.Flush()

	if *page > 0 {
		_, _ = fmt.Fprintf(out, "\nPage %d of %d\n", pageInfo.Number, pageInfo.Total)
	}
	return nil
}

// AddDealCommand adds a new deal.
func AddDealCommand(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("add-deal", flag.ContinueOnError)
	fs.SetOutput(out)
	client := fs.String("client", "", "Client name (required)")
	product := fs.String("product", "", "Product name (required)")
	stage := fs.String("stage", string(models.DefaultStage), "Pipeline stage")
	description := fs.String("description", "", "Free-form notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deal, err := s.AddDeal(ctx, models.DealDraft{
		ClientName:  *client,
		ProductName: *product,
		Stage:       models.Stage(*stage),
		Description: *description,
	})
	if err != nil {
		if msg := views.AlertMessage(err); msg != "" {
			return errors.New(msg)
		}
		return err
	}

	_, _ = fmt.Fprintf(out, "✓ Deal created: %s / %s (ID: %s)\n", deal.ClientName, deal.ProductName, deal.ID)
	_, _ = fmt.Fprintf(out, "  Stage: %s\n", deal.Stage)
	return nil
}

// UpdateDealCommand changes only the fields passed as flags.
func UpdateDealCommand(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("update-deal", flag.ContinueOnError)
	fs.SetOutput(out)
	client := fs.String("client", "", "New client name")
	product := fs.String("product", "", "New product name")
	stage := fs.String("stage", "", "New pipeline stage")
	description := fs.String("description", "", "New description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: update-deal [flags] <id>")
	}
	id, err := models.ParseDealID(fs.Arg(0))
	if err != nil {
		return err
	}

	var patch models.DealPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "client":
			patch.ClientName = client
		case "product":
			patch.ProductName = product
		case "stage":
			st := models.Stage(*stage)
			patch.Stage = &st
		case "description":
			patch.Description = description
		}
	})
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to update: pass at least one of --client, --product, --stage, --description")
	}

	deal, err := s.UpdateDeal(ctx, id, patch)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "✓ Deal updated: %s / %s (ID: %s)\n", deal.ClientName, deal.ProductName, deal.ID)
	_, _ = fmt.Fprintf(out, "  Stage: %s\n", deal.Stage)
	return nil
}

// MoveDealCommand drops a deal onto a stage label or onto another deal's card.
func MoveDealCommand(ctx context.Context, s *store.Store, e *kanban.Engine, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("move-deal", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: move-deal <id> <stage|deal-id>")
	}

	if err := s.FetchDeals(ctx); err != nil {
		return err
	}

	res := e.HandleDragEnd(ctx, kanban.Drop(fs.Arg(0), fs.Arg(1)))
	switch res.Outcome {
	case kanban.OutcomeMoved:
		if err := res.Pending.Wait(); err != nil {
			if res.Pending.RolledBack() {
				_, _ = fmt.Fprintf(out, "✗ Move failed; deal %s stays in %s\n", res.DealID, res.From)
			}
			return err
		}
		_, _ = fmt.Fprintf(out, "✓ Deal %s moved: %s → %s\n", res.DealID, res.From, res.To)
	case kanban.OutcomeSameStage:
		_, _ = fmt.Fprintf(out, "Deal %s is already in %s\n", res.DealID, res.To)
	case kanban.OutcomeUnknownDeal:
		return fmt.Errorf("deal %s not found", fs.Arg(0))
	case kanban.OutcomeUnresolved:
		return fmt.Errorf("%q is neither a stage nor a deal", fs.Arg(1))
	case kanban.OutcomeRejected:
		return fmt.Errorf("moving from %s to %s is not allowed by the %s policy", res.From, res.To, e.Policy().Name())
	}
	return nil
}

// DeleteDealCommand deletes a deal after confirmation.
func DeleteDealCommand(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("delete-deal", flag.ContinueOnError)
	fs.SetOutput(out)
	yes := fs.Bool("yes", false, "Confirm the deletion")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: delete-deal [--yes] <id>")
	}
	id, err := models.ParseDealID(fs.Arg(0))
	if err != nil {
		return err
	}

	if !*yes {
		_, _ = fmt.Fprintln(out, views.ConfirmDelete)
		return fmt.Errorf("deletion not confirmed (pass --yes)")
	}

	if err := s.DeleteDeal(ctx, id); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "✓ Deleted deal: %s\n", id)
	return nil
}

// ListEntitiesCommand prints the known clients and products.
func ListEntitiesCommand(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list-entities", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := s.FetchEntities(ctx); err != nil {
		return err
	}
	st := s.Snapshot()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TYPE\tID\tNAME")
	_, _ = fmt.Fprintln(w, "----\t--\t----")
	for _, c := range st.Clients {
		_, _ = fmt.Fprintf(w, "client\t%d\t%s\n", c.ID, c.Name)
	}
	for _, p := range st.Products {
		_, _ = fmt.Fprintf(w, "product\t%d\t%s\n", p.ID, p.Name)
	}
	return w.Flush()
}
