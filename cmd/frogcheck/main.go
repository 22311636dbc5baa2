// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"frogcheck/internal/check"
	"frogcheck/internal/config"
	"frogcheck/internal/errors"
	"frogcheck/internal/ir"
	"frogcheck/internal/parser"
	"frogcheck/internal/property"
	"frogcheck/internal/verify"
	"frogcheck/repl"
)

var version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "frogcheck"
	app.Usage = "verify sell-site properties of Frog programs"
	app.UsageText = "frogcheck [options] file.java..."
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "configuration file (default ./" + config.FileName + ")"},
		cli.StringSliceFlag{Name: "property, p", Usage: "property to check, repeatable or comma separated (default all)"},
		cli.BoolFlag{Name: "ir", Usage: "print the lowered program of every class"},
		cli.BoolFlag{Name: "explain", Usage: "print the sell-sites behind every UNSAFE verdict"},
		cli.IntFlag{Name: "jobs, j", Usage: "files verified in parallel"},
		cli.IntFlag{Name: "verbosity", Usage: "log verbosity: 1 info, 2 debug"},
		cli.StringFlag{Name: "log", Usage: "write the log to this file instead of stderr"},
		cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
		cli.BoolFlag{Name: "no-templates", Usage: "skip octagonal bounds when a join hits max_constraints"},
	}
	app.Action = run
	app.Commands = []cli.Command{
		{
			Name:  "repl",
			Usage: "verify classes typed on standard input",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c.Parent())
				if err != nil {
					return cli.NewExitError(err.Error(), check.StatusFailed)
				}
				name := "there"
				if u, err := user.Current(); err == nil {
					name = u.Username
				}
				fmt.Printf("Welcome to the frogcheck REPL, %s!\n", name)
				return repl.Start(os.Stdin, os.Stdout, cfg)
			},
		},
		{
			Name:  "grammar",
			Usage: "print the accepted grammar in EBNF",
			Action: func(c *cli.Context) error {
				fmt.Println(parser.EBNF())
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(check.StatusFailed)
	}
}

// loadConfig reads the configuration file and applies the flags over it
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if specs := c.StringSlice("property"); len(specs) > 0 {
		props, err := property.ParseList(strings.Join(specs, ","))
		if err != nil {
			return nil, err
		}
		cfg.Properties = props
	}
	if c.IsSet("jobs") {
		cfg.Jobs = c.Int("jobs")
	}
	if c.IsSet("verbosity") {
		cfg.Verbosity = c.Int("verbosity")
	}
	if c.IsSet("log") {
		cfg.LogFile = c.String("log")
	}
	if c.Bool("no-color") {
		cfg.Color = false
	}
	if c.Bool("no-templates") {
		cfg.Templates = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var logFile *string
	if cfg.LogFile != "" {
		logFile = &cfg.LogFile
	}
	commonlog.Configure(cfg.Verbosity, logFile)
	color.NoColor = color.NoColor || !cfg.Color
	return cfg, nil
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		cli.ShowAppHelp(c)
		return cli.NewExitError("", check.StatusFailed)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.NewExitError(err.Error(), check.StatusFailed)
	}

	startTime := time.Now()
	paths := c.Args()
	results := make([]*check.Result, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(cfg.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			r, err := check.File(path, cfg.Properties, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cli.NewExitError(err.Error(), check.StatusFailed)
	}

	status := check.StatusSafe
	for _, r := range results {
		printResult(r, c.Bool("ir"), c.Bool("explain"))
		status = worse(status, r.Status())
	}

	formattedDuration := formatDuration(time.Since(startTime))
	switch status {
	case check.StatusSafe:
		color.Green("Verified %d file(s) in %s", len(paths), formattedDuration)
	case check.StatusUnsafe:
		color.Yellow("Verified %d file(s) in %s, some properties may be violated", len(paths), formattedDuration)
	default:
		color.Red("Verification failed after %s", formattedDuration)
	}
	if status != check.StatusSafe {
		return cli.NewExitError("", status)
	}
	return nil
}

func printResult(r *check.Result, printIR, explain bool) {
	if len(r.Diagnostics) > 0 {
		fmt.Print(errors.NewErrorReporter(r.Name, r.Source).FormatAll(r.Diagnostics))
	}
	if printIR {
		for _, program := range r.Programs {
			fmt.Println(ir.PrintProgram(program))
		}
	}

	safe := color.New(color.FgGreen).SprintFunc()
	unsafe := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	for _, report := range r.Reports {
		for _, p := range report.Properties {
			verdict := report.Verdict(p)
			if verdict == verify.Safe {
				fmt.Printf("%s: %s %s\n", report.Class, p, safe(verdict))
				continue
			}
			fmt.Printf("%s: %s %s\n", report.Class, p, unsafe(verdict))
			if explain {
				for _, v := range report.ViolationsOf(p) {
					fmt.Printf("    %s\n", dim(v))
				}
			}
		}
		if explain {
			for _, u := range report.Unreachable {
				fmt.Printf("    %s\n", dim(fmt.Sprintf("%d:%d: unreachable: %s", u.Pos.Line, u.Pos.Column, u)))
			}
		}
	}
}

// worse orders the statuses failed > unsafe > safe
func worse(a, b int) int {
	if a == check.StatusFailed || b == check.StatusFailed {
		return check.StatusFailed
	}
	return max(a, b)
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
