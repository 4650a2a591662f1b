// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"solspin/internal/config"
	"solspin/internal/errors"
	"solspin/internal/gen"
	"solspin/internal/ir"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("solspin")

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	outPath := flag.String("o", "", "output file (default: stdout)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: solspin [flags] <contracts.json>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	startTime := time.Now()
	path := flag.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read configuration: %v\n", err)
			os.Exit(1)
		}
		cfg, err = config.Load(data)
		if err != nil {
			fail(*configPath, err, startTime)
		}
	}

	contracts, err := ir.DecodeContracts(source)
	if err != nil {
		fail(path, err, startTime)
	}
	log.Infof("decoded %d contract(s) from %s", len(contracts), path)

	model, led, err := gen.Translate(contracts, cfg)
	if err != nil {
		fail(path, err, startTime)
	}
	log.Infof("generated model %s with %d abstraction record(s)", model.Name, led.Len())

	text := gen.Emit(model)
	if *outPath == "" {
		fmt.Print(text)
	} else if err := os.WriteFile(*outPath, []byte(text), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write model: %v\n", err)
		os.Exit(1)
	}

	if led.Len() > 0 {
		fmt.Fprint(os.Stderr, led.Report())
	}
	color.Green("Successfully translated %s in %s", path, formatDuration(time.Since(startTime)))
}

func fail(path string, err error, startTime time.Time) {
	reporter := errors.NewReporter(path)
	fmt.Fprint(os.Stderr, reporter.Format(err))
	color.Red("Translation failed after %s", formatDuration(time.Since(startTime)))
	os.Exit(1)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
