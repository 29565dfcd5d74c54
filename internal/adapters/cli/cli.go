package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"procurement/internal/app"
	"procurement/internal/core"
)

// ErrUsage is returned when a command is missing arguments or unknown.
var ErrUsage = errors.New("usage")

// Commands lists the subcommands Run understands, in help order.
var Commands = []string{"quote", "show", "list", "recompute", "pay", "schema"}

// NeedsDatabase reports whether cmd talks to the order store.
func NeedsDatabase(cmd string) bool {
	switch cmd {
	case "quote", "q", "schema":
		return false
	}
	return true
}

// Run executes a one-shot CLI command.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: app <%s>", ErrUsage, strings.Join(Commands, "|"))
	}

	switch args[0] {
	case "quote", "q":
		var req app.QuoteRequest
		dec := json.NewDecoder(in)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		result, err := svc.QuoteOrder(ctx, req)
		if err != nil {
			return err
		}
		printOrder(out, result.Order)
		printDecision(out, result.Decision)

	case "show", "s":
		if len(args) < 2 {
			return fmt.Errorf("%w: app show <order-ref>", ErrUsage)
		}
		result, err := svc.GetOrder(ctx, args[1])
		if err != nil {
			return err
		}
		printOrder(out, result.Order)

	case "list", "ls":
		status := ""
		if len(args) > 1 {
			status = strings.ToUpper(args[1])
		}
		result, err := svc.ListOrders(ctx, status)
		if err != nil {
			return err
		}
		printOrderList(out, result.Orders)

	case "recompute", "rc":
		if len(args) < 2 {
			return fmt.Errorf("%w: app recompute <order-ref>", ErrUsage)
		}
		result, err := svc.RecomputeOrder(ctx, args[1])
		if err != nil {
			return err
		}
		printOrder(out, result.Order)

	case "pay":
		if len(args) < 3 {
			return fmt.Errorf("%w: app pay <order-ref> <YYYY-MM-DD>", ErrUsage)
		}
		result, err := svc.MarkOrderPaid(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %s marked PAID on %s.\n", result.Order.Reference, args[2])

	case "schema":
		if len(args) < 2 {
			return fmt.Errorf("%w: app schema <%s>", ErrUsage, strings.Join(app.SchemaNames(), "|"))
		}
		schema, err := svc.Schema(args[1])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(schema)

	default:
		return fmt.Errorf("%w: unknown command %q, available: %s", ErrUsage, args[0], strings.Join(Commands, ", "))
	}
	return nil
}

func printOrder(out io.Writer, po *core.PurchaseOrder) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 72))
	ref := po.Reference
	if ref == "" {
		ref = "(quote)"
	}
	fmt.Fprintf(out, "  ORDER %s  [%s]  %s\n", ref, po.Status, po.OrderType.Label())
	if po.ClientName != "" {
		fmt.Fprintf(out, "  Client : %s\n", po.ClientName)
	}
	fmt.Fprintln(out, strings.Repeat("=", 72))
	fmt.Fprintf(out, "  %-24s %8s %12s %7s %7s %12s\n", "PRODUCT", "QTY", "UNIT", "DISC%", "TVA%", "TOTAL TTC")
	fmt.Fprintln(out, strings.Repeat("-", 72))
	for _, it := range po.Items {
		unit, rate := "-", "-"
		if it.UnitPrice != nil {
			unit = core.FormatAmount(*it.UnitPrice)
		}
		if it.TaxRate != nil {
			rate = core.FormatRate(*it.TaxRate)
		}
		fmt.Fprintf(out, "  %-24s %8s %12s %7s %7s %12s\n",
			truncate(it.ProductName, 24), it.Quantity.String(), unit,
			core.FormatRate(it.Discount), rate, core.FormatAmount(it.TotalTTC))
	}
	fmt.Fprintln(out, strings.Repeat("-", 72))
	fmt.Fprintf(out, "  %-40s %29s\n", "Total HT", core.FormatAmount(po.TotalHT))
	fmt.Fprintf(out, "  %-40s %29s\n", "Total TVA", core.FormatAmount(po.TotalTVA))
	fmt.Fprintf(out, "  %-40s %29s\n", "Total TTC", core.FormatAmount(po.TotalTTC))
	fmt.Fprintf(out, "  %-40s %29s\n", "Withholding ("+core.FormatRate(po.WithholdingRate)+"%)", core.FormatAmount(po.WithholdingAmount))
	fmt.Fprintf(out, "  %-40s %29s\n", "Net to pay", core.FormatAmount(po.NetAmountToPay()))
	fmt.Fprintln(out, strings.Repeat("=", 72))
}

func printDecision(out io.Writer, d core.WithholdingDecision) {
	switch {
	case d.Applied:
		fmt.Fprintf(out, "  Withholding APPLIED: %s%% (%s basis, tax type %s)\n", core.FormatRate(d.Rate), d.Basis, d.TaxTypeCode)
	case d.Excluded:
		fmt.Fprintf(out, "  Withholding EXCLUDED: %s\n", d.Reason)
	default:
		fmt.Fprintln(out, "  Withholding not evaluated.")
	}
}

func printOrderList(out io.Writer, orders []core.PurchaseOrder) {
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders.")
		return
	}
	fmt.Fprintf(out, "  %-20s %-10s %-24s %14s %12s\n", "REFERENCE", "STATUS", "CLIENT", "TOTAL TTC", "WITHHELD")
	fmt.Fprintln(out, strings.Repeat("-", 84))
	for _, po := range orders {
		fmt.Fprintf(out, "  %-20s %-10s %-24s %14s %12s\n",
			truncate(po.Reference, 20), po.Status, truncate(po.ClientName, 24),
			core.FormatAmount(po.TotalTTC), core.FormatAmount(po.WithholdingAmount))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
