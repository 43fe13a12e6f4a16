package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ttcnlang/internal/config"
	"ttcnlang/internal/diag"
	"ttcnlang/internal/engine"
	"ttcnlang/internal/loader"
)

// errDiagnostics makes the process exit non-zero after the diagnostics
// were already printed.
var errDiagnostics = errors.New("errors were reported")

type app struct {
	out, errOut io.Writer
	v           *viper.Viper
	log         zerolog.Logger
	opts        config.Options

	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, v: viper.New()}
	config.SetDefaults(a.v)

	root := &cobra.Command{
		Use:           "ttcn",
		Short:         "Check TTCN-3 statement blocks and apply incremental edits",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "configuration file (default: nearest "+loader.ConfigName+")")
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level")
	if err := config.BindFlags(pf, a.v); err != nil {
		panic(err)
	}

	root.AddCommand(a.checkCmd(), a.editCmd(), a.configCmd())
	return root
}

func (a *app) init() error {
	lvl, err := zerolog.ParseLevel(a.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.logLevel, err)
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut}).Level(lvl).With().Timestamp().Logger()

	path := a.configPath
	if path == "" {
		if path, err = loader.FindConfig("."); err != nil {
			return err
		}
	}
	if path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		a.log.Debug().Str("path", path).Msg("loaded configuration")
	}
	a.opts, err = config.Load(a.v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [paths...]",
		Short: "Parse and check units",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			ws, err := engine.NewWorkspace(a.opts, a.log)
			if err != nil {
				return err
			}
			if _, err := ws.OpenPaths(".", args...); err != nil {
				return err
			}
			bags, err := ws.CheckAll()
			if err != nil {
				return err
			}
			return a.report(bags)
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	var rng, text string
	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Check a unit, apply one edit in memory and check it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(rng)
			if err != nil {
				return err
			}
			ws, err := engine.NewWorkspace(a.opts, a.log)
			if err != nil {
				return err
			}
			units, err := ws.OpenPaths(".", args[0])
			if err != nil {
				return err
			}
			if len(units) != 1 {
				return fmt.Errorf("%s is not a source file", args[0])
			}
			u := units[0]
			if _, err := u.Check(); err != nil {
				return err
			}
			res, err := u.Edit(start, end, text)
			if err != nil {
				return err
			}
			bag, err := u.Check()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "incremental: %t, reparsed blocks: %d, scope changed: %t\n", res.Incremental, res.Reparsed, res.ScopeChanged)
			return a.report(map[string]*diag.Bag{u.Name(): bag})
		},
	}
	cmd.Flags().StringVar(&rng, "range", "", "byte range START:END replaced by the edit")
	cmd.Flags().StringVar(&text, "text", "", "replacement text")
	_ = cmd.MarkFlagRequired("range")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := a.opts.Settings()
			keys := make([]string, 0, len(settings))
			for k := range settings {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(a.out, "%s: %s\n", k, settings[k])
			}
			return nil
		},
	}
}

func (a *app) report(bags map[string]*diag.Bag) error {
	names := make([]string, 0, len(bags))
	for n := range bags {
		names = append(names, n)
	}
	sort.Strings(names)
	failed := false
	for _, n := range names {
		diag.Print(a.out, bags[n])
		failed = failed || bags[n].HasErrors()
	}
	if failed {
		return errDiagnostics
	}
	return nil
}

func parseRange(s string) (start, end int, err error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range %q: want START:END", s)
	}
	if start, err = strconv.Atoi(lo); err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q", lo)
	}
	if end, err = strconv.Atoi(hi); err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q", hi)
	}
	if start < 0 || end < start {
		return 0, 0, fmt.Errorf("invalid range %d:%d", start, end)
	}
	return start, end, nil
}
