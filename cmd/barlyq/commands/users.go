package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/views"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (a *app) record(s *cliSession, cmd *cobra.Command, action audit.Action, resource string, payload any) {
	if _, err := s.engine.Audit().Append(s.actor(cmd.Context()), action, resource, payload); err != nil {
		a.log.Warn("audit append failed", zap.String("action", string(action)), zap.Error(err))
	}
}

func usersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Browse and moderate users",
	}
	cmd.AddCommand(usersListCmd(a), usersGetCmd(a), usersUpdateCmd(a), usersDeleteCmd(a))
	return cmd
}

func usersListCmd(a *app) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			users, err := s.api.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd, a, views.Users, users, &lf)
		}),
	}
	lf.register(cmd)
	return cmd
}

func usersGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u, err := s.api.Users.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), u)
			}
			printFields(cmd.OutOrStdout(), [][2]string{
				{"id", fmt.Sprint(u.ID)},
				{"name", u.FullName()},
				{"email", u.Email},
				{"phone", u.Phone},
				{"city", u.City},
				{"role", u.Role},
				{"rating", fmt.Sprintf("%.1f", u.ReviewRating)},
				{"registered", views.Date(u.CreatedAt) + " (" + views.Ago(u.CreatedAt) + ")"},
			})
			return nil
		}),
	}
}

func usersUpdateCmd(a *app) *cobra.Command {
	var name, surname, email, phone, city, role string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change profile fields of a user",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var upd client.UserUpdate
			changed := map[string]string{}
			set := func(flag string, val string, dst **string) {
				if cmd.Flags().Changed(flag) {
					v := val
					*dst = &v
					changed[flag] = v
				}
			}
			set("name", name, &upd.Name)
			set("surname", surname, &upd.Surname)
			set("email", email, &upd.Email)
			set("phone", phone, &upd.Phone)
			set("city", city, &upd.City)
			set("role", role, &upd.Role)
			if len(changed) == 0 {
				return errors.New("nothing to update: pass at least one of --name --surname --email --phone --city --role")
			}

			u, err := s.api.Users.Update(cmd.Context(), id, upd)
			if err != nil {
				return err
			}
			a.record(s, cmd, audit.ActionUserUpdated, fmt.Sprintf("user/%d", id), changed)
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), u)
			}
			success(cmd.OutOrStdout(), "Updated user %d", id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "first name")
	cmd.Flags().StringVar(&surname, "surname", "", "last name")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&city, "city", "", "city")
	cmd.Flags().StringVar(&role, "role", "", "role")
	return cmd
}

func usersDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !confirm(cmd, yes, fmt.Sprintf("Delete user %d?", id)) {
				return errAborted
			}
			if err := s.api.Users.Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.record(s, cmd, audit.ActionUserDeleted, fmt.Sprintf("user/%d", id), nil)
			success(cmd.OutOrStdout(), "Deleted user %d", id)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
