// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command scal-analyze reads an operation log in the format
// analyzer.Parse understands and prints its quantitative semantic-error
// summary: how far the recorded execution deviates from an ideal FIFO
// (or LIFO) order.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"code.hybscloud.com/scal/analyzer"
)

// CLI is scal-analyze's flag set.
type CLI struct {
	LogFile   string `arg:"" help:"path to the operation log to analyze."`
	Linearize string `help:"linearization strategy: invocation, response, linpoint, minmax, minsum." default:"minmax"`
	Cost      string `help:"cost function: lowerbound, upperbound." default:"lowerbound"`
	Fairness  bool   `help:"also print per-type (insert/remove) fairness aggregates."`
}

func main() {
	var cli CLI
	kong.Parse(&cli, kong.Description("semantic-error analyzer for pool operation logs"))

	if err := run(cli); err != nil {
		fmt.Fprintln(os.Stderr, "scal-analyze:", err)
		os.Exit(1)
	}
}

func run(cli CLI) error {
	f, err := os.Open(cli.LogFile)
	if err != nil {
		return err
	}
	defer f.Close()

	ops, err := analyzer.Parse(f)
	if err != nil {
		return err
	}
	if err := analyzer.Match(ops); err != nil {
		return err
	}

	linearize, err := selectLinearizer(cli.Linearize)
	if err != nil {
		return err
	}
	cost, err := selectCost(cli.Cost)
	if err != nil {
		return err
	}

	overlaps := analyzer.PrecomputeOverlaps(ops)
	linearized := linearize(ops)
	h := analyzer.ExecuteWithOverlaps(linearized, overlaps, cost)
	agg := analyzer.BuildAggregate(linearized, overlaps, h)

	printAggregate(agg)
	if cli.Fairness {
		printFairness(agg)
	}
	return nil
}

func selectLinearizer(name string) (analyzer.Linearizer, error) {
	switch name {
	case "invocation":
		return analyzer.ByInvocation, nil
	case "response":
		return analyzer.ByResponse, nil
	case "linpoint":
		return analyzer.ByLinPoint, nil
	case "minmax":
		return analyzer.ByMinMax, nil
	case "minsum":
		return analyzer.ByMinSum, nil
	default:
		return nil, fmt.Errorf("unknown linearization strategy %q", name)
	}
}

func selectCost(name string) (analyzer.CostFunc, error) {
	switch name {
	case "lowerbound":
		return analyzer.SemanticErrorLowerBound, nil
	case "upperbound":
		return analyzer.SemanticErrorUpperBound, nil
	default:
		return nil, fmt.Errorf("unknown cost function %q", name)
	}
}

func printAggregate(agg analyzer.Aggregate) {
	fmt.Printf("max: %d; num_ops: %d; total: %d; average: %.4f; stddev: %.4f; performance: %.4f\n",
		agg.Max, agg.Samples, agg.Total, agg.Mean, agg.StdDev, agg.Performance)
}

func printFairness(agg analyzer.Aggregate) {
	fmt.Printf("insert_fairness: count: %d; total: %d; mean: %.4f\n",
		agg.Inserts.Count, agg.Inserts.Total, agg.Inserts.Mean)
	fmt.Printf("remove_fairness: count: %d; total: %d; mean: %.4f\n",
		agg.Removes.Count, agg.Removes.Total, agg.Removes.Mean)
}
