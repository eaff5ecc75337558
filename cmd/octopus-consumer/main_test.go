package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mgazza/octopus-consumer/octopus"
)

func TestParseFlags(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	t.Setenv("OCTOPUS_CONFIG", "")

	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, cmd *command)
		wantErr string
	}{
		{
			name: "meters",
			args: []string{"-apikey", "sk_test", "-account", "A-AAAA1111", "meters"},
			check: func(t *testing.T, cmd *command) {
				require.Equal(t, "meters", cmd.Name)
				require.Equal(t, "sk_test", cmd.Config.APIKey)
				require.Equal(t, "A-AAAA1111", cmd.Config.AccountNumber)
				require.Equal(t, now, cmd.At)
			},
		},
		{
			name: "consumption",
			args: []string{
				"-apikey", "sk_test", "-account", "A-AAAA1111",
				"-start", "2024-01-01T00:00:00Z", "-serial", "E6S12345678912",
				"-unit", "m3", "-group-by", "day", "-out", "", "consumption",
			},
			check: func(t *testing.T, cmd *command) {
				opts := cmd.Consumption
				require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), opts.From)
				require.Equal(t, now, opts.To)
				require.Equal(t, "E6S12345678912", opts.Serial)
				require.Equal(t, octopus.CubicMeters, opts.Unit)
				require.Equal(t, octopus.Aggregate("day"), opts.GroupBy)
				require.Empty(t, cmd.Config.CSV.Path)
			},
		},
		{
			name: "consumption defaults",
			args: []string{"-apikey", "sk_test", "-account", "A-AAAA1111", "consumption"},
			check: func(t *testing.T, cmd *command) {
				require.True(t, cmd.Consumption.From.IsZero())
				require.Empty(t, cmd.Consumption.Unit)
				require.Equal(t, "output.csv", cmd.Config.CSV.Path)
			},
		},
		{
			name: "rates at",
			args: []string{"-apikey", "sk_test", "-account", "A-AAAA1111", "-at", "2024-06-01T12:00:00+01:00", "rates"},
			check: func(t *testing.T, cmd *command) {
				require.True(t, cmd.At.Equal(time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)))
			},
		},
		{
			name:    "missing api key",
			args:    []string{"-account", "A-AAAA1111", "meters"},
			wantErr: "invalid config",
		},
		{
			name:    "no command",
			args:    []string{"-apikey", "sk_test", "-account", "A-AAAA1111"},
			wantErr: "expected exactly one command",
		},
		{
			name:    "unknown command",
			args:    []string{"-apikey", "sk_test", "-account", "A-AAAA1111", "tariffs"},
			wantErr: `unknown command "tariffs"`,
		},
		{
			name:    "bad unit",
			args:    []string{"-apikey", "sk_test", "-account", "A-AAAA1111", "-unit", "litres", "consumption"},
			wantErr: `invalid -unit "litres"`,
		},
		{
			name:    "bad group by",
			args:    []string{"-apikey", "sk_test", "-account", "A-AAAA1111", "-group-by", "year", "consumption"},
			wantErr: "invalid -group-by",
		},
		{
			name:    "bad start",
			args:    []string{"-apikey", "sk_test", "-account", "A-AAAA1111", "-start", "yesterday", "consumption"},
			wantErr: "invalid -start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := parseFlags(tt.args, now, io.Discard)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cmd)
		})
	}
}

func TestParseFlagsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiKey: sk_file\naccountNumber: A-BBBB2222\ncacheDir: /tmp/octopus\n"), 0o600))

	cmd, err := parseFlags([]string{"-config", path, "-account", "A-AAAA1111", "meters"}, time.Now(), io.Discard)
	require.NoError(t, err)
	require.Equal(t, "sk_file", cmd.Config.APIKey)
	require.Equal(t, "A-AAAA1111", cmd.Config.AccountNumber)
	require.Equal(t, "/tmp/octopus", cmd.Config.CacheDir)
}

func TestEnvOrString(t *testing.T) {
	t.Setenv("OCTOPUS_TEST_VALUE", "set")
	require.Equal(t, "set", envOrString("OCTOPUS_TEST_VALUE", "default"))
	require.Equal(t, "default", envOrString("OCTOPUS_TEST_UNSET", "default"))
}
