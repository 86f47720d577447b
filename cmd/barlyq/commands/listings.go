package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/views"
)

func listingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Browse and remove listings of every kind",
	}
	cmd.AddCommand(listingsListCmd(a), listingsGetCmd(a), listingsDeleteCmd(a))
	return cmd
}

func kindList() string {
	kinds := client.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func listingsListCmd(a *app) *cobra.Command {
	var (
		lf                listFlags
		category, variant string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all listings, newest first",
		Long: `List merges the six listing kinds (` + kindList() + `)
into one table. Filter with --category service|work|rent and
--variant offer|seek.`,
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			items, err := s.api.Listings.Unified(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd, a, views.Listings, views.FilterListings(items, category, variant), &lf)
		}),
	}
	lf.register(cmd)
	cmd.Flags().StringVar(&category, "category", "", "service, work or rent")
	cmd.Flags().StringVar(&variant, "variant", "", "offer or seek")
	return cmd
}

// listingRef parses "kind/id" or "kind-id" as well as separate arguments.
func listingRef(args []string) (client.ListingKind, int64, error) {
	var kindArg, idArg string
	switch len(args) {
	case 1:
		i := strings.LastIndexAny(args[0], "/-")
		if i <= 0 {
			return "", 0, fmt.Errorf("expected <kind>/<id>, got %q", args[0])
		}
		kindArg, idArg = args[0][:i], args[0][i+1:]
	case 2:
		kindArg, idArg = args[0], args[1]
	default:
		return "", 0, errors.New("expected <kind> <id>")
	}
	kind, err := client.ParseKind(kindArg)
	if err != nil {
		return "", 0, fmt.Errorf("%w (valid: %s)", err, kindList())
	}
	id, err := parseID(idArg)
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}

func listingsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind>/<id>",
		Short: "Show one listing",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			kind, id, err := listingRef(args)
			if err != nil {
				return err
			}
			l, err := s.api.Listings.Get(cmd.Context(), kind, id)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), l)
			}
			printFields(cmd.OutOrStdout(), [][2]string{
				{"key", l.Key},
				{"type", views.ListingLabel(*l)},
				{"name", l.Name},
				{"owner", fmt.Sprintf("user %d", l.UserID)},
				{"address", l.Address},
				{"price", views.Price(l.Price)},
				{"rating", fmt.Sprintf("%.1f", l.AvgRating)},
				{"status", l.Status},
				{"images", fmt.Sprint(len(l.Images))},
				{"created", views.Date(l.CreatedAt) + " (" + views.Ago(l.CreatedAt) + ")"},
			})
			if d := strings.TrimSpace(l.Description); d != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", d)
			}
			return nil
		}),
	}
}

func listingsDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <kind>/<id>",
		Short: "Delete a listing",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			kind, id, err := listingRef(args)
			if err != nil {
				return err
			}
			if !confirm(cmd, yes, fmt.Sprintf("Delete listing %s-%d?", kind, id)) {
				return errAborted
			}
			if err := s.api.Listings.Delete(cmd.Context(), kind, id); err != nil {
				return err
			}
			a.record(s, cmd, audit.ActionListingDeleted, fmt.Sprintf("%s/%d", kind, id), nil)
			success(cmd.OutOrStdout(), "Deleted listing %s-%d", kind, id)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
