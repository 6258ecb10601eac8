package main

import (
	"github.com/spf13/cobra"

	"github.com/ahrav/outcmp/infrastructure/report"
	"github.com/ahrav/outcmp/infrastructure/submissions"
	"github.com/ahrav/outcmp/internal/application"
)

type gradeOptions struct {
	outputs     string
	ext         string
	maxBytes    int64
	concurrency int
	rps         float64
	burst       int
	format      string
	exitCode    bool
}

func newGradeCmd(global *globalOptions) *cobra.Command {
	opts := &gradeOptions{}

	cmd := &cobra.Command{
		Use:   "grade <suite.yaml>",
		Short: "Grade a directory of submitted outputs against a suite",
		Long: `Grade loads a YAML suite of expected outputs and compares each case with
the file <outputs>/<case id><ext>. A missing submission marks its case as
errored without stopping the run.

Examples:
  # Grade ./outputs against week-1.yaml and print a markdown report
  outcmp grade week-1.yaml --outputs ./outputs --format markdown

  # Limit grading to 20 cases per second, four at a time
  outcmp grade week-1.yaml --outputs ./outputs --rps 20 --concurrency 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrade(cmd, global, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.outputs, "outputs", "o", ".", "Directory holding one submitted output per case")
	f.StringVar(&opts.ext, "ext", submissions.DefaultExtension, "Extension of submission files")
	f.Int64Var(&opts.maxBytes, "max-bytes", 0, "Reject submissions larger than this many bytes (0 means no limit)")
	f.IntVar(&opts.concurrency, "concurrency", 0, "Cases graded at once (0 means the CPU count)")
	f.Float64Var(&opts.rps, "rps", 0, "Cases started per second (0 means unlimited)")
	f.IntVar(&opts.burst, "burst", 1, "Burst size for --rps")
	f.StringVarP(&opts.format, "format", "f", report.FormatMarkdown, "Output format: json or markdown")
	f.BoolVar(&opts.exitCode, "exit-code", false, "Exit with status 1 unless every case passed")

	return cmd
}

func runGrade(cmd *cobra.Command, global *globalOptions, opts *gradeOptions, suitePath string) error {
	writer, err := report.New(opts.format)
	if err != nil {
		return err
	}

	loader, err := application.NewSuiteLoader()
	if err != nil {
		return err
	}
	suite, err := loader.LoadFromFile(cmd.Context(), suitePath)
	if err != nil {
		return err
	}

	source, err := submissions.NewDirSource(opts.outputs,
		submissions.WithExtension(opts.ext),
		submissions.WithMaxBytes(opts.maxBytes),
	)
	if err != nil {
		return err
	}

	e, err := global.newEngine(suite.StrategyOptions())
	if err != nil {
		return err
	}
	runner, err := application.NewSuiteRunner(e.comparator, source,
		application.WithConcurrency(opts.concurrency),
		application.WithRateLimit(opts.rps, opts.burst),
		application.WithRunnerLogger(global.logger),
	)
	if err != nil {
		return err
	}

	result, err := runner.Run(cmd.Context(), suite)
	if err != nil {
		return err
	}

	if err := writer.WriteSuite(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if err := global.flushMetrics(e); err != nil {
		return err
	}
	if opts.exitCode && !result.AllPassed() {
		return errNotPassed
	}
	return nil
}
