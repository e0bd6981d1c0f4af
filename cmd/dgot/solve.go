package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ShayCichocki/dgot/internal/config"
	"github.com/ShayCichocki/dgot/internal/gateway"
	"github.com/ShayCichocki/dgot/internal/metrics"
	"github.com/ShayCichocki/dgot/internal/report"
	"github.com/ShayCichocki/dgot/internal/solve"
	"github.com/ShayCichocki/dgot/pkg/models"
)

var (
	solveMaxDepth    int
	solveMaxWidth    int
	solveConcurrency int
	solveProvider    string
	solveModel       string
	solveFormat      string
	solveTruncate    int
	solveMetrics     bool
	solveStrict      bool
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	answerStyle = lipgloss.NewStyle().PaddingLeft(2)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var solveCmd = &cobra.Command{
	Use:   "solve <question>",
	Short: "Solve a question by recursive decomposition",
	Long: `Solve asks the model whether the question should be decomposed, splits it
into at most --max-width independent subproblems, solves each one recursively
in parallel down to --max-depth, and combines the answers.

The final answer is printed first, followed by the decomposition tree.
Use --format json or --format yaml to export the whole tree instead.

Examples:
  dgot solve "Plan a 3-day trip to Paris covering sights, food, and budget"
  dgot solve --max-depth 2 --format json "Compare three sorting algorithms"
  dgot solve --provider anthropic --model claude-sonnet-4-5 "Explain TCP slow start"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().IntVar(&solveMaxDepth, "max-depth", 0, "Recursion depth ceiling (default from config: 4)")
	solveCmd.Flags().IntVar(&solveMaxWidth, "max-width", 0, "Maximum subproblems per decomposition (default from config: 3)")
	solveCmd.Flags().IntVar(&solveConcurrency, "concurrency", 0, "Maximum concurrent model calls (default from config: 256)")
	solveCmd.Flags().StringVar(&solveProvider, "provider", "", "Model provider: openai or anthropic")
	solveCmd.Flags().StringVar(&solveModel, "model", "", "Model name (openai: first listed model when empty)")
	solveCmd.Flags().StringVarP(&solveFormat, "format", "f", "text", "Output format: text, json or yaml")
	solveCmd.Flags().IntVar(&solveTruncate, "truncate", 0, "Truncate tree text fields to N characters (default from config: 100)")
	solveCmd.Flags().BoolVar(&solveMetrics, "metrics", false, "Print Prometheus metrics to stderr after solving")
	solveCmd.Flags().BoolVar(&solveStrict, "strict", false, "Fail if the result tree violates its depth, width or alignment bounds")
}

// applySolveFlags copies explicitly set flags over the loaded config.
func applySolveFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-depth") {
		c.Solve.MaxDepth = solveMaxDepth
	}
	if flags.Changed("max-width") {
		c.Solve.MaxWidth = solveMaxWidth
	}
	if flags.Changed("concurrency") {
		c.Solve.MaxConcurrency = solveConcurrency
	}
	if flags.Changed("provider") {
		c.Oracle.Provider = config.Provider(strings.ToLower(solveProvider))
	}
	if flags.Changed("model") {
		c.Oracle.Model = solveModel
	}
	if flags.Changed("truncate") {
		c.Report.Truncate = solveTruncate
	}
}

func runSolve(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question must not be empty")
	}

	runCfg := *cfg
	applySolveFlags(cmd, &runCfg)
	if err := runCfg.Validate(); err != nil {
		return err
	}

	format, err := report.ParseFormat(solveFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := buildOracle(ctx, &runCfg, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	gw := gateway.New(stack.client,
		gateway.WithTemperature(runCfg.Oracle.Temperature),
		gateway.WithLogger(logger),
		gateway.WithMetrics(m))
	engine := solve.New(gw,
		solve.WithMaxDepth(runCfg.Solve.MaxDepth),
		solve.WithMaxWidth(runCfg.Solve.MaxWidth),
		solve.WithLogger(logger),
		solve.WithMetrics(m))

	logger.Info("solving",
		zap.String("question", question),
		zap.Int("max_depth", runCfg.Solve.MaxDepth),
		zap.Int("max_width", runCfg.Solve.MaxWidth))

	start := time.Now()
	answer, tree := engine.Answer(ctx, question)
	elapsed := time.Since(start)

	if solveStrict {
		if err := tree.Validate(engine.MaxDepth(), engine.MaxWidth()); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch format {
	case report.FormatJSON:
		data, err := report.JSON(tree)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case report.FormatYAML:
		data, err := report.YAML(tree)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
	default:
		if err := printText(out, &runCfg, question, answer, tree); err != nil {
			return err
		}
	}

	in, outTok := stack.tracker.Total()
	fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(fmt.Sprintf(
		"%s | %s: %d model calls (%d failed, peak %d concurrent) | %d in / %d out tokens | %s",
		report.Summarize(tree), stack.model, stack.tracker.Calls(), stack.tracker.Failures(),
		stack.limiter.Peak(), in, outTok, elapsed.Round(time.Millisecond))))

	if solveMetrics {
		if err := metrics.Write(cmd.ErrOrStderr(), reg); err != nil {
			return err
		}
	}
	return nil
}

func printText(w io.Writer, c *config.Config, question, answer string, tree *models.ResultNode) error {
	useColor := c.Report.Color && !color.NoColor

	fmt.Fprintln(w, headerStyle.Render("Question"))
	fmt.Fprintln(w, answerStyle.Render(question))
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Answer"))
	fmt.Fprintln(w, answerStyle.Render(answer))
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Detailed results"))
	return report.Render(w, tree,
		report.WithTruncate(c.Report.Truncate),
		report.WithColor(useColor))
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
