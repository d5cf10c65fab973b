package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/steve-ongera/phoneplace-kenya/internal/checkout"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

// deliveryFlags maps delivery form fields to the flags that set them.
var deliveryFlags = map[string]string{
	"full_name":        "name",
	"email":            "email",
	"phone":            "phone",
	"shipping_address": "address",
	"city":             "city",
	"payment_method":   "method",
}

func checkoutCmd(get func() *app) *cobra.Command {
	var (
		form  checkout.DeliveryForm
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the items in the cart",
		Long: `Reviews the cart, creates the order with the delivery details and
starts payment. M-Pesa sends an STK push to --mpesa-phone (or --phone);
approve it on your phone. Cash on delivery needs no payment step.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			accountDefaults(&form, a.store.State().User)

			flow, err := checkout.NewFlow(a.client, a.store,
				checkout.WithNavigator(a.loc),
				checkout.WithCartRefresher(a.session),
				checkout.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}

			printCart(out, a.store.State())
			if err := flow.Proceed(); err != nil {
				return err
			}

			order, err := flow.SubmitDelivery(ctx, form)
			if err != nil {
				var verr *checkout.ValidationError
				if errors.As(err, &verr) {
					flags := make([]string, len(verr.Fields))
					for i, field := range verr.Fields {
						flags[i] = "--" + deliveryFlags[field]
					}
					return fmt.Errorf("missing or invalid %s", strings.Join(flags, ", "))
				}
				return err
			}
			fmt.Fprintf(out, "\nOrder %s created, total %s\n", order.OrderNumber, order.Total)

			if err := flow.Pay(ctx); err != nil {
				return err
			}
			if flow.Step() == checkout.StepPaymentPending && watch {
				settled, err := checkout.WatchPayment(ctx, a.client, order.ID, watchOptions(a))
				if err != nil && !errors.Is(err, checkout.ErrPaymentPending) {
					return err
				}
				if settled != nil {
					fmt.Fprintf(out, "Payment %s\n", paymentColor(settled.PaymentStatus))
				}
			}
			if !flow.Step().IsTerminal() {
				if _, err := flow.ViewOrder(); err != nil {
					return err
				}
			}
			return showOrderAt(cmd, a, a.loc.Path())
		},
	}

	f := cmd.Flags()
	f.StringVar(&form.FullName, "name", "", "full name (defaults to your account name)")
	f.StringVar(&form.Email, "email", "", "contact email (defaults to your account email)")
	f.StringVar(&form.Phone, "phone", "", "contact phone (defaults to your account phone)")
	f.StringVar(&form.ShippingAddress, "address", "", "delivery address")
	f.StringVar(&form.City, "city", "", "city")
	f.StringVar(&form.County, "county", checkout.DefaultCounty, "county")
	f.StringVar((*string)(&form.PaymentMethod), "method", string(domain.PaymentMethodMpesa), "payment method: mpesa or cash")
	f.StringVar(&form.MpesaPhone, "mpesa-phone", "", "M-Pesa number (defaults to --phone)")
	f.StringVar(&form.Notes, "notes", "", "delivery notes")
	f.BoolVar(&watch, "watch", false, "wait for the M-Pesa payment to settle")
	return cmd
}

// accountDefaults fills each contact field the flags left empty from the
// signed-in account.
func accountDefaults(form *checkout.DeliveryForm, u *domain.User) {
	if u == nil {
		return
	}
	if form.FullName == "" {
		form.FullName = u.DisplayName()
	}
	if form.Email == "" {
		form.Email = u.Email
	}
	if p := u.Profile; p != nil && form.Phone == "" {
		form.Phone = p.Phone
	}
}

func watchOptions(a *app) checkout.WatchOptions {
	opts := checkout.DefaultWatchOptions()
	opts.Logger = a.logger
	return opts
}

// showOrderAt prints the order whose detail path the flow navigated to.
func showOrderAt(cmd *cobra.Command, a *app, path string) error {
	id, err := uuid.Parse(strings.TrimPrefix(path, "/orders/"))
	if err != nil {
		return fmt.Errorf("unexpected location %q", path)
	}
	order, err := a.loader.OrderDetail(cmd.Context(), id)
	if err != nil {
		return err
	}
	printOrder(cmd.OutOrStdout(), order)
	return nil
}

func ordersCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			orders, err := a.loader.Orders(cmd.Context())
			if err != nil {
				return err
			}
			printHeading(cmd.OutOrStdout(), "My Orders")
			printOrders(cmd.OutOrStdout(), orders)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}
			return showOrderAt(cmd, a, checkout.OrderPath(id))
		},
	}

	watch := &cobra.Command{
		Use:   "watch <order-id>",
		Short: "Wait until an order's payment is settled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}
			order, err := checkout.WatchPayment(cmd.Context(), a.client, id, watchOptions(a))
			if order != nil {
				printOrder(cmd.OutOrStdout(), order)
			}
			return err
		},
	}

	cmd.AddCommand(show, watch)
	return cmd
}
