// Command motocusto-calc prices a YAML file of working days offline, with
// no database or server involved.
//
//	motocusto-calc -in week.yaml
//	motocusto-calc -in week.yaml -format json
//	motocusto-calc -in week.yaml -xlsx week.xlsx
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"motocusto/internal/core"
	"motocusto/internal/report"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// document is the YAML input.
type document struct {
	Configuration core.CostConfiguration `yaml:"configuration"`
	Entries       []core.Entry           `yaml:"entries"`
}

type result struct {
	Entries []entryResult         `json:"entries"`
	Totals  core.DashboardMetrics `json:"totals"`
}

type entryResult struct {
	Entry     core.Entry         `json:"entry"`
	Breakdown core.CostBreakdown `json:"breakdown"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("motocusto-calc", flag.ContinueOnError)
	flagSet.SetOutput(errOut)

	inPath := flagSet.String("in", "-", "YAML input file, - for stdin")
	format := flagSet.String("format", formatText, "Output format: text or json")
	xlsxPath := flagSet.String("xlsx", "", "Also write an Excel report to this path")

	if err := flagSet.Parse(args); err != nil {
		return 2
	}
	if flagSet.NArg() != 0 {
		fmt.Fprintln(errOut, "motocusto-calc does not accept positional arguments")
		return 2
	}
	if *format != formatText && *format != formatJSON {
		fmt.Fprintf(errOut, "invalid format %q: must be text or json\n", *format)
		return 2
	}

	doc, err := readDocument(*inPath, in)
	if err != nil {
		fmt.Fprintf(errOut, "failed to read input: %v\n", err)
		return 1
	}
	if err := validate(doc); err != nil {
		fmt.Fprintf(errOut, "input is invalid: %v\n", err)
		return 1
	}

	res := compute(doc)
	if *format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(res)
	} else {
		err = writeText(out, res)
	}
	if err != nil {
		fmt.Fprintf(errOut, "failed to write output: %v\n", err)
		return 1
	}

	if *xlsxPath != "" {
		if err := writeXLSX(*xlsxPath, doc); err != nil {
			fmt.Fprintf(errOut, "failed to write report: %v\n", err)
			return 1
		}
	}
	return 0
}

func readDocument(path string, stdin io.Reader) (document, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return document{}, err
		}
		defer f.Close()
		r = f
	}

	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return document{}, err
	}
	return doc, nil
}

func validate(doc document) error {
	if err := doc.Configuration.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	for i, e := range doc.Entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %d (%s): %w", i+1, e.Date, err)
		}
	}
	return nil
}

func compute(doc document) result {
	sorted := core.SortEntries(doc.Entries)
	res := result{
		Entries: make([]entryResult, 0, len(sorted)),
		Totals:  core.ComputeDashboardMetrics(sorted, doc.Configuration),
	}
	for _, e := range sorted {
		res.Entries = append(res.Entries, entryResult{Entry: e, Breakdown: core.ComputeCostBreakdown(e, doc.Configuration)})
	}
	return res
}

func writeText(out io.Writer, res result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Date\tKm\tGross\tMaintenance\tTotal expense\tNet profit\tExpense %\t")
	for _, r := range res.Entries {
		b := r.Breakdown
		fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Entry.Date,
			b.Distance,
			core.FormatBRL(r.Entry.GrossEarnings),
			core.FormatBRL(b.MaintenanceCost),
			core.FormatBRL(b.TotalExpense),
			core.FormatBRL(b.NetProfit),
			core.FormatPercent(b.ExpensePercentage))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	totals := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(totals, "Entries\t%d\n", len(res.Entries))
	fmt.Fprintf(totals, "Total distance\t%.1f km\n", res.Totals.TotalDistance)
	fmt.Fprintf(totals, "Total revenue\t%s\n", core.FormatBRL(res.Totals.TotalRevenue))
	fmt.Fprintf(totals, "Total expenses\t%s\n", core.FormatBRL(res.Totals.TotalExpenses))
	fmt.Fprintf(totals, "Net profit\t%s\n", core.FormatBRL(res.Totals.TotalNetProfit))
	return totals.Flush()
}

func writeXLSX(path string, doc document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteEntriesXLSX(f, doc.Entries, doc.Configuration); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
