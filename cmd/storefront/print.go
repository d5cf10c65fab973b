package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
	"github.com/steve-ongera/phoneplace-kenya/internal/session"
)

// toastPrinter prints each toast once, when it first appears in the session.
type toastPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	seen map[int64]bool
}

func newToastPrinter(out io.Writer) *toastPrinter {
	return &toastPrinter{out: out, seen: make(map[int64]bool)}
}

func (p *toastPrinter) Print(s session.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range s.Toasts {
		if p.seen[t.ID] {
			continue
		}
		p.seen[t.ID] = true
		fmt.Fprintln(p.out, severityColor(t.Severity).Sprintf("%s %s", severityMark(t.Severity), t.Message))
	}
}

func severityColor(s domain.Severity) *color.Color {
	switch s {
	case domain.SeveritySuccess:
		return color.New(color.FgGreen)
	case domain.SeverityError:
		return color.New(color.FgRed)
	case domain.SeverityWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func severityMark(s domain.Severity) string {
	switch s {
	case domain.SeveritySuccess:
		return "✓"
	case domain.SeverityError:
		return "✗"
	case domain.SeverityWarning:
		return "⚠"
	default:
		return "i"
	}
}

var heading = color.New(color.Bold, color.FgBlue)

func printHeading(w io.Writer, title string) {
	fmt.Fprintln(w)
	heading.Fprintln(w, title)
}

func printSectionError(w io.Writer, err error) {
	fmt.Fprintln(w, color.RedString("  could not load: %v", err))
}

func priceRange(p domain.ProductSummary) string {
	switch {
	case p.MinPrice == nil:
		return "-"
	case p.MaxPrice == nil || *p.MaxPrice == *p.MinPrice:
		return p.MinPrice.String()
	default:
		return p.MinPrice.String() + " - " + p.MaxPrice.String()
	}
}

func badges(p domain.ProductSummary) string {
	var b []string
	if p.IsHot {
		b = append(b, color.RedString("HOT"))
	}
	if p.IsNew {
		b = append(b, color.GreenString("NEW"))
	}
	if p.IsFeatured {
		b = append(b, color.YellowString("FEATURED"))
	}
	return strings.Join(b, " ")
}

func printProducts(w io.Writer, products []domain.ProductSummary) {
	if len(products) == 0 {
		fmt.Fprintln(w, "  no products")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range products {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", p.Slug, p.Name, p.BrandName, priceRange(p), badges(p))
	}
	tw.Flush()
}

func printCart(w io.Writer, s session.Session) {
	printHeading(w, s.CartLabel())
	if s.Cart.IsEmpty() {
		fmt.Fprintln(w, "  Your cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, it := range s.Cart.Items {
		name := it.Product.Name
		if it.Variant != nil {
			name += " (" + it.Variant.Name + ")"
		}
		fmt.Fprintf(tw, "  #%d\t%s\tx%d\t%s\n", it.ID, name, it.Quantity, it.Subtotal)
	}
	tw.Flush()
	fmt.Fprintf(w, "  Total: %s\n", color.New(color.Bold).Sprint(s.CartTotal()))
}

func paymentColor(s domain.PaymentStatus) string {
	switch s {
	case domain.PaymentStatusPaid:
		return color.GreenString(string(s))
	case domain.PaymentStatusFailed:
		return color.RedString(string(s))
	default:
		return color.YellowString(string(s))
	}
}

func printOrders(w io.Writer, orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "  No orders yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, o := range orders {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			o.OrderNumber, o.CreatedAt.Format("2006-01-02"), o.Status, paymentColor(o.PaymentStatus), o.Total, o.ID)
	}
	tw.Flush()
}

func printOrder(w io.Writer, o *domain.Order) {
	printHeading(w, "Order "+o.OrderNumber)
	fmt.Fprintf(w, "  Status:   %s\n", o.Status)
	fmt.Fprintf(w, "  Payment:  %s (%s)\n", paymentColor(o.PaymentStatus), o.PaymentMethod)
	fmt.Fprintf(w, "  Deliver:  %s, %s, %s, %s\n", o.FullName, o.ShippingAddress, o.City, o.County)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, it := range o.Items {
		name := it.ProductName
		if it.VariantName != "" {
			name += " (" + it.VariantName + ")"
		}
		fmt.Fprintf(tw, "  %s\tx%d\t%s\n", name, it.Quantity, it.Subtotal)
	}
	tw.Flush()
	fmt.Fprintf(w, "  Subtotal: %s\n  Shipping: %s\n  Total:    %s\n", o.Subtotal, o.ShippingFee, color.New(color.Bold).Sprint(o.Total))
}
