package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func cartCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the shopping cart",
		Run: func(cmd *cobra.Command, args []string) {
			printCart(cmd.OutOrStdout(), get().store.State())
		},
	}

	var variantID, quantity int
	add := &cobra.Command{
		Use:   "add <product-slug>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			p, err := a.client.Product(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var variant *int
			if cmd.Flags().Changed("variant") {
				variant = &variantID
			} else if len(p.Variants) > 0 {
				variant = &p.Variants[0].ID
			}
			if err := a.session.AddToCart(cmd.Context(), p.ID, variant, quantity); err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), a.store.State())
			return nil
		},
	}
	add.Flags().IntVar(&variantID, "variant", 0, "variant id (defaults to the first variant)")
	add.Flags().IntVarP(&quantity, "qty", "q", 1, "quantity")

	remove := &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			if err := a.session.RemoveFromCart(cmd.Context(), id); err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), a.store.State())
			return nil
		},
	}

	qty := &cobra.Command{
		Use:   "qty <item-id> <quantity>",
		Short: "Set the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			if err := a.session.UpdateCartQty(cmd.Context(), id, n); err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), a.store.State())
			return nil
		},
	}

	empty := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.session.ClearCart(cmd.Context()); err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), a.store.State())
			return nil
		},
	}

	cmd.AddCommand(add, remove, qty, empty)
	return cmd
}

func wishlistCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Show saved products",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			items, err := a.client.Wishlist(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printHeading(out, fmt.Sprintf("Wishlist (%d)", len(items)))
			for _, it := range items {
				fmt.Fprintf(out, "  %s %s\t%s\n", color.RedString("♥"), it.Product.Slug, priceRange(it.Product))
			}
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <product-slug>",
		Short: "Save a product, or remove it if already saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			p, err := a.client.Product(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.session.ToggleWishlist(cmd.Context(), p.ID)
		},
	}
	cmd.AddCommand(toggle)
	return cmd
}
