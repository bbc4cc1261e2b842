package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/Rana718/synthdb/internal/classify"
	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/seeder"
)

// printPlan renders a dry run: levels, deferred references, the column
// classification of every table and the constraint diagnostics.
func printPlan(plan *seeder.Plan) {
	g := plan.Graph

	pterm.DefaultSection.Println("Insertion order")
	for i, level := range plan.Order.Levels {
		names := make([]string, len(level))
		for j, n := range level {
			names[j] = fmt.Sprintf("%s (%d)", g.Name(n), plan.Rows[n])
		}
		fmt.Printf("  level %d: %s\n", i, strings.Join(names, ", "))
	}

	if len(plan.Order.Deferred) > 0 {
		pterm.DefaultSection.Println("Deferred references")
		for _, e := range plan.Order.Deferred {
			fk := g.Table(e.Child).ForeignKeys[e.FK]
			fmt.Printf("  %s(%s) -> %s\n", g.Name(e.Child), strings.Join(fk.Columns, ", "), g.Name(e.Parent))
		}
	}

	pterm.DefaultSection.Println("Column classification")
	data := pterm.TableData{{"Table", "Column", "Category", "Confidence", "Bundle"}}
	for _, n := range plan.Order.Tables {
		tp := &plan.Tables[n]
		for _, tag := range tp.Tags {
			data = append(data, []string{
				tp.Table,
				tag.Column,
				tag.Category.String(),
				strconv.FormatFloat(tag.Confidence, 'f', 2, 64),
				bundleLabel(tp, &tag),
			})
		}
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		fmt.Println(err)
	}

	if len(plan.Diagnostics) == 0 {
		pterm.Success.Println("No constraint diagnostics")
		return
	}
	pterm.DefaultSection.Println("Diagnostics")
	for _, d := range plan.Diagnostics {
		pterm.Error.Printfln("%s: %v", errors.Kind(d), d)
	}
}

func bundleLabel(tp *classify.TablePlan, tag *classify.Tag) string {
	if tag.ForeignKey {
		return "fk"
	}
	if tag.Bundle == classify.NoBundle {
		return ""
	}
	b := tp.Bundles[tag.Bundle]
	if b.Inherits() {
		return fmt.Sprintf("%s #%d <- %s", b.Kind, b.ID, b.InheritFrom)
	}
	return fmt.Sprintf("%s #%d", b.Kind, b.ID)
}

func printSummary(summary *seeder.Summary, dest string) {
	for _, t := range summary.Tables {
		line := fmt.Sprintf("  %-24s %6d rows", t.Table, t.Rows)
		if t.Patched > 0 || t.LeftNull > 0 {
			line += fmt.Sprintf(", %d patched, %d left NULL", t.Patched, t.LeftNull)
		}
		fmt.Println(line)
		if t.Clamped > 0 {
			color.Yellow("    ⚠️  %d numeric values clamped into range", t.Clamped)
		}
	}

	total := summary.Totals()
	fmt.Println()
	color.Green("✅ Generated %d rows in %d tables (%s)", total.Rows, len(summary.Tables), summary.Elapsed.Round(time.Millisecond))
	color.Cyan("   Seed: %d", summary.Seed)
	color.Cyan("   Output: %s", dest)
}
