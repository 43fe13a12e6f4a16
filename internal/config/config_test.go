package config

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"ttcnlang/internal/diag"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	o, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, Default(), o)
}

func TestLoadFromYAML(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
minimise_memory_usage: true
report_goto: error
report_empty_block: warning
too_many_statements_threshold: 3
`)))
	o, err := Load(v)
	require.NoError(t, err)
	assert.True(t, o.MinimiseMemoryUsage)
	assert.Equal(t, diag.Error, o.ReportGoto)
	assert.Equal(t, diag.Warning, o.ReportEmptyBlock)
	assert.Equal(t, 3, o.TooManyStatementsThreshold)
	assert.Equal(t, diag.Warning, o.ReportUnreachableCode)
}

func TestLoadAggregatesErrors(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyReportGoto, "loud")
	v.Set(KeyReportInfiniteLoops, "sometimes")
	v.Set(KeyOpenUnits, 0)

	_, err := Load(v)
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 3)
	require.Contains(t, err.Error(), KeyReportGoto)
}

func TestBindFlags(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(fs, v))
	require.NoError(t, fs.Parse([]string{"--report-goto=warning", "--too-many-statements-threshold=7"}))

	o, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, diag.Warning, o.ReportGoto)
	assert.Equal(t, 7, o.TooManyStatementsThreshold)
	assert.Equal(t, "7", o.Settings()[KeyTooManyStatementsThreshold])
}
