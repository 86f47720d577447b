package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/views"
)

func complaintsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complaints",
		Short: "Review complaints about listings",
	}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List complaints",
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			items, err := s.api.Complaints.List(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd, a, views.Complaints, items, &lf)
		}),
	}
	lf.register(list)

	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Dismiss a complaint",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !confirm(cmd, yes, fmt.Sprintf("Delete complaint %d?", id)) {
				return errAborted
			}
			if err := s.api.Complaints.Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.record(s, cmd, audit.ActionComplaintDeleted, fmt.Sprintf("complaint/%d", id), nil)
			success(cmd.OutOrStdout(), "Deleted complaint %d", id)
			return nil
		}),
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(list, del)
	return cmd
}
