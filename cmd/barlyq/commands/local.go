package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/views"
)

func cacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local response cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			total, expired, err := e.Cache().Stats()
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"total": total, "expired": expired})
			}
			printFields(cmd.OutOrStdout(), [][2]string{
				{"Entries", fmt.Sprint(total)},
				{"Expired", fmt.Sprint(expired)},
				{"TTL", a.cfg.GetCacheTTL().String()},
			})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Drop expired entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.Cache().Purge()
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "purged %d expired entries", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.Cache().Clear()
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "cleared %d entries", n)
			return nil
		},
	})
	return cmd
}

func auditCmd(a *app) *cobra.Command {
	var f audit.Filter
	var action string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the local log of administrative actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			f.Action = audit.Action(action)
			evs, err := e.Audit().List(f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return printJSON(out, evs)
			}
			if len(evs) == 0 {
				fmt.Fprintln(out, "  No events.")
				return nil
			}
			rows := make([][]string, 0, len(evs))
			for _, ev := range evs {
				rows = append(rows, []string{
					ev.Timestamp.Local().Format("2006-01-02 15:04:05"),
					ev.Actor,
					string(ev.Action),
					ev.Resource,
					views.Truncate(string(ev.Payload), 40),
				})
			}
			renderTable(out, []string{"Time", "Actor", "Action", "Resource", "Details"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "only this action (e.g. user.deleted)")
	cmd.Flags().StringVar(&f.Actor, "actor", "", "only this administrator")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "maximum events")
	return cmd
}
