package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/outcmp/infrastructure/report"
	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

type compareOptions struct {
	submitted      string
	expected       string
	expectedSHA256 string
	mode           string
	configFile     string
	set            []string
	format         string
	exitCode       bool
}

func newCompareCmd(global *globalOptions) *cobra.Command {
	opts := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare one submitted output against the expected output",
		Long: `Compare reads the submitted and expected outputs from files ("-" reads
stdin) and prints the verdict with the trace of every strategy consulted.

Examples:
  # Compare two files and print a JSON verdict
  outcmp compare --submitted got.txt --expected want.txt

  # Force FLOAT_EPS with a custom tolerance
  outcmp compare --submitted got.txt --expected want.txt --mode FLOAT_EPS --set float_eps=0.01

  # Grade against the digest of a large expected output
  ./prog | outcmp compare --submitted - --expected-sha256 9f86d08...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd, global, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.submitted, "submitted", "s", "", "File holding the submitted output")
	f.StringVarP(&opts.expected, "expected", "e", "", "File holding the expected output")
	f.StringVar(&opts.expectedSHA256, "expected-sha256", "", "SHA-256 digest of the normalized expected output")
	f.StringVarP(&opts.mode, "mode", "m", "", "Compare mode: AUTO or a single strategy (see 'outcmp modes')")
	f.StringVarP(&opts.configFile, "config", "c", "", "YAML or JSON file holding compare_config overrides")
	f.StringArrayVar(&opts.set, "set", nil, "Override one compare_config key, e.g. --set float_eps=1e-3")
	f.StringVarP(&opts.format, "format", "f", report.FormatJSON, "Output format: json or markdown")
	f.BoolVar(&opts.exitCode, "exit-code", false, "Exit with status 1 when the outputs do not match")

	_ = cmd.MarkFlagRequired("submitted")
	cmd.MarkFlagsOneRequired("expected", "expected-sha256")
	cmd.MarkFlagsMutuallyExclusive("expected", "expected-sha256")

	return cmd
}

func runCompare(cmd *cobra.Command, global *globalOptions, opts *compareOptions) error {
	if opts.submitted == "-" && opts.expected == "-" {
		return errors.New("only one of --submitted and --expected can read stdin")
	}
	writer, err := report.New(opts.format)
	if err != nil {
		return err
	}
	overrides, err := loadOverrides(opts.configFile, opts.set)
	if err != nil {
		return err
	}
	submitted, err := readInput(cmd.InOrStdin(), opts.submitted)
	if err != nil {
		return err
	}

	e, err := global.newEngine(nil)
	if err != nil {
		return err
	}

	var result domain.ComparisonResult
	if opts.expectedSHA256 != "" {
		result, err = e.comparator.CompareDigest(cmd.Context(), submitted, opts.expectedSHA256, overrides)
	} else {
		var expected string
		if expected, err = readInput(cmd.InOrStdin(), opts.expected); err != nil {
			return err
		}
		req := domain.NewComparisonRequest(submitted, expected, opts.mode, overrides)
		result, err = e.comparator.Compare(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	if err := writer.WriteResult(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if err := global.flushMetrics(e); err != nil {
		return err
	}
	if opts.exitCode && !result.Passed {
		return errNotPassed
	}
	return nil
}

// readInput returns the contents of path, or of stdin when path is "-".
func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// loadOverrides merges the compare_config file with --set pairs, which win.
// Values in --set are decoded as YAML scalars so numbers stay numbers.
func loadOverrides(path string, pairs []string) (map[string]any, error) {
	overrides := make(map[string]any)

	if path != "" {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.NewConfigError(path, ports.ErrConfigNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, ports.NewConfigError(path, fmt.Errorf("%w: %w", ports.ErrInvalidFormat, err))
		}
		if overrides == nil {
			overrides = make(map[string]any)
		}
	}

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		overrides[strings.TrimSpace(key)] = value
	}

	if len(overrides) == 0 {
		return nil, nil
	}
	return overrides, nil
}
