package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"xauron/internal/render"
	"xauron/internal/strategy"
	"xauron/pkg/model"
)

func outputJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputResultTable(r *render.Renderer, res *model.AnalysisResult) error {
	fmt.Printf("%s %s [%s]: %s %d%%\n\n", res.Symbol, res.Interval, res.Strategy, r.Side(res.Side), res.Confidence)

	if res.Plan != nil {
		plan := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Entry", "Stop", "Protect", "TP1", "TP2", "TP3"}),
		)
		plan.Append([]string{
			render.Price(res.Plan.Entry),
			render.Price(res.Plan.Stop),
			render.Price(res.Plan.Protect),
			render.Price(res.Plan.TP1),
			render.Price(res.Plan.TP2),
			render.Price(res.Plan.TP3),
		})
		plan.Render()
		fmt.Println()
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Check", "Value"}),
	)
	for _, reason := range res.Reasons {
		table.Append([]string{r.Label(reason.Key), r.Value(reason.Value)})
	}
	table.Render()

	fmt.Printf("\nLast candle %s UTC\n", res.Timestamp.UTC().Format("2006-01-02 15:04"))
	return nil
}

func outputScanTable(r *render.Renderer, result *model.ScanResult) error {
	if len(result.Signals) == 0 {
		fmt.Println("No consensus signals.")
	} else {
		signals := result.Signals
		sort.Slice(signals, func(i, j int) bool {
			return signals[i].Confidence > signals[j].Confidence
		})

		fmt.Printf("Found %d consensus signals:\n\n", len(signals))

		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Symbol", "Side", "Conf", "Ref", "Entry", "Stop", "TP1", "TP3"}),
		)
		for _, s := range signals {
			row := []string{s.Symbol, r.Side(s.Side), fmt.Sprintf("%d%%", s.Confidence), s.ReferenceInterval, "-", "-", "-", "-"}
			if s.Plan != nil {
				row[4] = render.Price(s.Plan.Entry)
				row[5] = render.Price(s.Plan.Stop)
				row[6] = render.Price(s.Plan.TP1)
				row[7] = render.Price(s.Plan.TP3)
			}
			table.Append(row)
		}
		table.Render()
	}

	if len(result.Failures) > 0 {
		fmt.Println("\n--- Failures ---")
		syms := make([]string, 0, len(result.Failures))
		for sym := range result.Failures {
			syms = append(syms, sym)
		}
		sort.Strings(syms)
		for _, sym := range syms {
			fmt.Printf("  %s: %s\n", sym, result.Failures[sym])
		}
	}

	fmt.Printf("\nScanned %d symbols in %s (%d alerts)\n",
		result.TotalScanned, result.ScanTime.Round(time.Millisecond), len(result.Alerts))
	return nil
}

func outputStrategies() error {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Name", "Description"}),
	)
	for _, info := range strategy.AllInfo() {
		table.Append([]string{info.Name, info.Description})
	}
	table.Render()
	fmt.Printf("\nDefault: %s\n", strategy.DefaultVariant)
	return nil
}
