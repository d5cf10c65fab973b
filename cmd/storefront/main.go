package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, cleanup := rootCmd()
	err := root.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		stop()
		os.Exit(1)
	}
}

// rootCmd builds the command tree. The returned func releases whatever the
// command that ran opened.
func rootCmd() (*cobra.Command, func()) {
	var (
		opts appOptions
		a    *app
	)

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "PhonePlace Kenya storefront in the terminal",
		Long: `Browse the PhonePlace Kenya catalog, manage your cart and wishlist,
check out with M-Pesa or cash on delivery and track your orders.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := a.session.Bootstrap(cmd.Context()); err != nil {
				a.logger.Warn("session restore incomplete", "err", err)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ./storefront.yaml)")
	flags.BoolVar(&opts.ephemeral, "ephemeral", false, "keep tokens in memory only")
	flags.StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	get := func() *app { return a }
	cmd.AddCommand(
		loginCmd(get),
		registerCmd(get),
		logoutCmd(get),
		whoamiCmd(get),
		profileCmd(get),
		homeCmd(get),
		productsCmd(get),
		productCmd(get),
		categoryCmd(get),
		brandCmd(get),
		cartCmd(get),
		wishlistCmd(get),
		checkoutCmd(get),
		ordersCmd(get),
	)
	return cmd, func() {
		if a != nil {
			a.Close()
		}
	}
}
