package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/views"
)

func taxiCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxi",
		Short: "Taxi orders and driver applications",
	}

	var orders listFlags
	ordersCmd := &cobra.Command{
		Use:   "orders [id]",
		Short: "List taxi orders, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				o, err := s.api.Taxi.Order(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printOne(cmd, a, views.TaxiOrders, *o)
			}
			items, err := s.api.Taxi.Orders(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd, a, views.TaxiOrders, items, &orders)
		}),
	}
	orders.register(ordersCmd)

	var drivers listFlags
	var status string
	driversCmd := &cobra.Command{
		Use:   "drivers [id]",
		Short: "List driver applications, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				d, err := s.api.Taxi.Driver(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printOne(cmd, a, views.Drivers, *d)
			}
			items, err := s.api.Taxi.Drivers(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd, a, views.Drivers, views.FilterByApproval(items, status), &drivers)
		}),
	}
	drivers.register(driversCmd)
	driversCmd.Flags().StringVar(&status, "approval", "", "pending, approved or rejected")

	cmd.AddCommand(ordersCmd, driversCmd,
		approvalCmd(a, "approve", "driver", client.ApprovalApproved, setDriver),
		approvalCmd(a, "reject", "driver", client.ApprovalRejected, setDriver),
	)
	return cmd
}

func courierCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courier",
		Short: "Courier orders and courier applications",
	}

	var orders listFlags
	ordersCmd := &cobra.Command{
		Use:   "orders [id]",
		Short: "List courier orders, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				o, err := s.api.Courier.Order(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printOne(cmd, a, views.CourierOrders, *o)
			}
			items, err := s.api.Courier.Orders(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd, a, views.CourierOrders, items, &orders)
		}),
	}
	orders.register(ordersCmd)

	var couriers listFlags
	var status string
	couriersCmd := &cobra.Command{
		Use:   "couriers [id]",
		Short: "List courier applications, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				c, err := s.api.Courier.Courier(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printOne(cmd, a, views.Couriers, *c)
			}
			items, err := s.api.Courier.Couriers(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd, a, views.Couriers, views.FilterByApproval(items, status), &couriers)
		}),
	}
	couriers.register(couriersCmd)
	couriersCmd.Flags().StringVar(&status, "approval", "", "pending, approved or rejected")

	cmd.AddCommand(ordersCmd, couriersCmd,
		approvalCmd(a, "approve", "courier", client.ApprovalApproved, setCourier),
		approvalCmd(a, "reject", "courier", client.ApprovalRejected, setCourier),
	)
	return cmd
}

type approvalSetter func(ctx context.Context, api *client.Client, id int64, status client.ApprovalStatus) error

func setDriver(ctx context.Context, api *client.Client, id int64, status client.ApprovalStatus) error {
	return api.Taxi.SetDriverApproval(ctx, id, status)
}

func setCourier(ctx context.Context, api *client.Client, id int64, status client.ApprovalStatus) error {
	return api.Courier.SetCourierApproval(ctx, id, status)
}

// approvalCmd builds "approve <id>" / "reject <id>" for drivers or couriers.
func approvalCmd(a *app, verb, subject string, status client.ApprovalStatus, set approvalSetter) *cobra.Command {
	action := audit.ActionDriverApproval
	if subject == "courier" {
		action = audit.ActionCourierApproval
	}
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: fmt.Sprintf("Mark a %s application %s", subject, status),
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := set(cmd.Context(), s.api, id, status); err != nil {
				return err
			}
			a.record(s, cmd, action, fmt.Sprintf("%s/%d", subject, id), map[string]string{"status": string(status)})
			success(cmd.OutOrStdout(), "%s %d %s", subject, id, status)
			return nil
		}),
	}
}

// printOne prints a single row through the view's columns.
func printOne[T any](cmd *cobra.Command, a *app, v views.View[T], item T) error {
	if a.jsonOut {
		return printJSON(cmd.OutOrStdout(), item)
	}
	headers, row := v.Headers(), v.Rows([]T{item})[0]
	fields := make([][2]string, len(headers))
	for i := range headers {
		fields[i] = [2]string{headers[i], row[i]}
	}
	printFields(cmd.OutOrStdout(), fields)
	return nil
}
