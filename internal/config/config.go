// Package config holds the immutable option snapshot consumed by the
// checker and the incremental engine.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"ttcnlang/internal/diag"
)

const (
	KeyMinimiseMemoryUsage         = "minimise_memory_usage"
	KeyReportUnreachableCode       = "report_unreachable_code"
	KeyReportInfiniteLoops         = "report_infinite_loops"
	KeyReportEmptyBlock            = "report_empty_block"
	KeyReportTooManyStatements     = "report_too_many_statements"
	KeyTooManyStatementsThreshold  = "too_many_statements_threshold"
	KeyReportGoto                  = "report_goto"
	KeyReportUnusedLabel           = "report_unused_label"
	KeyReportUnusedLocalDefinition = "report_unused_local_definition"
	KeyOpenUnits                   = "open_units"
)

// Options is passed by value; callers re-fetch it between edit cycles.
type Options struct {
	MinimiseMemoryUsage         bool
	ReportUnreachableCode       diag.Severity
	ReportInfiniteLoops         diag.Severity
	ReportEmptyBlock            diag.Severity
	ReportTooManyStatements     diag.Severity
	TooManyStatementsThreshold  int
	ReportGoto                  diag.Severity
	ReportUnusedLabel           diag.Severity
	ReportUnusedLocalDefinition diag.Severity
	OpenUnits                   int
}

func Default() Options {
	return Options{
		ReportUnreachableCode:       diag.Warning,
		ReportInfiniteLoops:         diag.Warning,
		ReportEmptyBlock:            diag.Ignore,
		ReportTooManyStatements:     diag.Ignore,
		TooManyStatementsThreshold:  150,
		ReportGoto:                  diag.Ignore,
		ReportUnusedLabel:           diag.Warning,
		ReportUnusedLocalDefinition: diag.Warning,
		OpenUnits:                   64,
	}
}

// SetDefaults registers the defaults on v so that unset keys resolve.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyMinimiseMemoryUsage, d.MinimiseMemoryUsage)
	v.SetDefault(KeyReportUnreachableCode, d.ReportUnreachableCode.String())
	v.SetDefault(KeyReportInfiniteLoops, d.ReportInfiniteLoops.String())
	v.SetDefault(KeyReportEmptyBlock, d.ReportEmptyBlock.String())
	v.SetDefault(KeyReportTooManyStatements, d.ReportTooManyStatements.String())
	v.SetDefault(KeyTooManyStatementsThreshold, d.TooManyStatementsThreshold)
	v.SetDefault(KeyReportGoto, d.ReportGoto.String())
	v.SetDefault(KeyReportUnusedLabel, d.ReportUnusedLabel.String())
	v.SetDefault(KeyReportUnusedLocalDefinition, d.ReportUnusedLocalDefinition.String())
	v.SetDefault(KeyOpenUnits, d.OpenUnits)
}

// BindFlags declares the option flags on fs and binds them into v.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	d := Default()
	fs.Bool(flagName(KeyMinimiseMemoryUsage), d.MinimiseMemoryUsage, "free statement lists of checked blocks")
	fs.String(flagName(KeyReportUnreachableCode), d.ReportUnreachableCode.String(), "severity of unreachable code reports")
	fs.String(flagName(KeyReportInfiniteLoops), d.ReportInfiniteLoops.String(), "severity of infinite loop reports")
	fs.String(flagName(KeyReportEmptyBlock), d.ReportEmptyBlock.String(), "severity of empty block reports")
	fs.String(flagName(KeyReportTooManyStatements), d.ReportTooManyStatements.String(), "severity of too-many-statements reports")
	fs.Int(flagName(KeyTooManyStatementsThreshold), d.TooManyStatementsThreshold, "statement count above which a block is reported")
	fs.String(flagName(KeyReportGoto), d.ReportGoto.String(), "severity of goto usage reports")
	fs.String(flagName(KeyReportUnusedLabel), d.ReportUnusedLabel.String(), "severity of unused label reports")
	fs.String(flagName(KeyReportUnusedLocalDefinition), d.ReportUnusedLocalDefinition.String(), "severity of unused local definition reports")
	fs.Int(flagName(KeyOpenUnits), d.OpenUnits, "maximum number of units kept open")

	var err error
	for _, key := range keys() {
		err = multierr.Append(err, v.BindPFlag(key, fs.Lookup(flagName(key))))
	}
	return err
}

// Load builds a snapshot from v. All invalid values are reported together.
func Load(v *viper.Viper) (Options, error) {
	o := Options{
		MinimiseMemoryUsage:        v.GetBool(KeyMinimiseMemoryUsage),
		TooManyStatementsThreshold: v.GetInt(KeyTooManyStatementsThreshold),
		OpenUnits:                  v.GetInt(KeyOpenUnits),
	}
	var err error
	sev := func(key string, dst *diag.Severity) {
		s, perr := diag.ParseSeverity(v.GetString(key))
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", key, perr))
			return
		}
		*dst = s
	}
	sev(KeyReportUnreachableCode, &o.ReportUnreachableCode)
	sev(KeyReportInfiniteLoops, &o.ReportInfiniteLoops)
	sev(KeyReportEmptyBlock, &o.ReportEmptyBlock)
	sev(KeyReportTooManyStatements, &o.ReportTooManyStatements)
	sev(KeyReportGoto, &o.ReportGoto)
	sev(KeyReportUnusedLabel, &o.ReportUnusedLabel)
	sev(KeyReportUnusedLocalDefinition, &o.ReportUnusedLocalDefinition)

	err = multierr.Append(err, o.Validate())
	if err != nil {
		return Options{}, err
	}
	return o, nil
}

// Validate checks value ranges.
func (o Options) Validate() error {
	var err error
	if o.TooManyStatementsThreshold <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive, got %d", KeyTooManyStatementsThreshold, o.TooManyStatementsThreshold))
	}
	if o.OpenUnits <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive, got %d", KeyOpenUnits, o.OpenUnits))
	}
	return err
}

// Settings renders the snapshot with the configuration key names.
func (o Options) Settings() map[string]string {
	return map[string]string{
		KeyMinimiseMemoryUsage:         fmt.Sprint(o.MinimiseMemoryUsage),
		KeyReportUnreachableCode:       o.ReportUnreachableCode.String(),
		KeyReportInfiniteLoops:         o.ReportInfiniteLoops.String(),
		KeyReportEmptyBlock:            o.ReportEmptyBlock.String(),
		KeyReportTooManyStatements:     o.ReportTooManyStatements.String(),
		KeyTooManyStatementsThreshold:  fmt.Sprint(o.TooManyStatementsThreshold),
		KeyReportGoto:                  o.ReportGoto.String(),
		KeyReportUnusedLabel:           o.ReportUnusedLabel.String(),
		KeyReportUnusedLocalDefinition: o.ReportUnusedLocalDefinition.String(),
		KeyOpenUnits:                   fmt.Sprint(o.OpenUnits),
	}
}

func keys() []string {
	return []string{
		KeyMinimiseMemoryUsage,
		KeyReportUnreachableCode,
		KeyReportInfiniteLoops,
		KeyReportEmptyBlock,
		KeyReportTooManyStatements,
		KeyTooManyStatementsThreshold,
		KeyReportGoto,
		KeyReportUnusedLabel,
		KeyReportUnusedLocalDefinition,
		KeyOpenUnits,
	}
}

func flagName(key string) string { return strings.ReplaceAll(key, "_", "-") }
