// Package gateway implements the four Oracle operations used by the solve engine.
//
// Every operation makes at most one Oracle call and never returns an error: a
// failed call or an undecodable reply degrades to an error-tagged string or a
// conservative default, so a single bad reply cannot abort the tree.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/dgot/internal/logging"
	"github.com/ShayCichocki/dgot/internal/metrics"
	"github.com/ShayCichocki/dgot/internal/oracle"
	"github.com/ShayCichocki/dgot/internal/parse"
	"github.com/ShayCichocki/dgot/pkg/models"
)

// DefaultTemperature is the sampling temperature for every call.
const DefaultTemperature = 0.6

// Operation names used in logs and metrics.
const (
	OpSolveAtomic     = "solve_atomic"
	OpShouldDecompose = "should_decompose"
	OpBreakDown       = "break_down"
	OpCombine         = "combine"
)

// Fallback replies.
const (
	noResponseSolution = "Unable to get a response for this problem."
	noCombineSolution  = "Unable to combine solutions due to model error."
	directPrefix       = "Solve the problem directly: "
)

// Gateway issues prompt-templated requests to a shared Oracle client.
type Gateway struct {
	client      oracle.Client
	model       string
	temperature float64
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Gateway) { g.temperature = t }
}

// WithModel overrides the client's model for every request.
func WithModel(model string) Option {
	return func(g *Gateway) { g.model = model }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// New creates a Gateway. The client is shared by all callers and must be safe
// for concurrent use.
func New(client oracle.Client, opts ...Option) *Gateway {
	g := &Gateway{
		client:      client,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.OrNop(g.logger).Named("gateway")
	return g
}

// call sends one prompt. A blank reply is reported as ok=false with a nil error.
func (g *Gateway) call(ctx context.Context, op, prompt string) (content string, ok bool, err error) {
	req := oracle.UserRequest(prompt, g.temperature)
	req.Model = g.model

	start := time.Now()
	resp, err := g.client.Complete(ctx, req)
	if err != nil {
		g.metrics.ObserveCall(op, metrics.OutcomeCommError, time.Since(start))
		g.logger.Warn("oracle call failed", zap.String("op", op), zap.Error(err))
		return "", false, err
	}
	if strings.TrimSpace(resp.Content) == "" {
		g.metrics.ObserveCall(op, metrics.OutcomeEmpty, time.Since(start))
		g.logger.Warn("oracle returned empty content", zap.String("op", op))
		return "", false, nil
	}
	return resp.Content, true, nil
}

// finish records the outcome of a call whose reply arrived.
func (g *Gateway) finish(op string, start time.Time, parseErr error, raw string) {
	if parseErr != nil {
		g.metrics.ObserveCall(op, metrics.OutcomeParseError, time.Since(start))
		g.metrics.ParseFallback(op)
		g.logger.Warn("failed to parse oracle response",
			zap.String("op", op),
			zap.Error(parseErr),
			zap.String("raw", logging.Truncate(raw, 500)))
		return
	}
	g.metrics.ObserveCall(op, metrics.OutcomeOK, time.Since(start))
}

// SolveAtomic asks for a direct answer to problem.
func (g *Gateway) SolveAtomic(ctx context.Context, problem, rootQuestion string) string {
	start := time.Now()
	content, ok, err := g.call(ctx, OpSolveAtomic, fmt.Sprintf(atomicPrompt, rootQuestion, problem))
	if err != nil {
		return fmt.Sprintf("%s solving atomic problem. Error: %v", models.ErrorMarker, err)
	}
	if !ok {
		return noResponseSolution
	}

	reply, perr := parse.DecodeSolution(content)
	g.finish(OpSolveAtomic, start, perr, content)
	if perr != nil {
		return fmt.Sprintf("%s. Raw response: %s", models.ParseErrorMarker, content)
	}
	if !reply.Found || strings.TrimSpace(reply.Solution) == "" {
		return content
	}
	return reply.Solution
}

// ShouldDecompose asks whether problem should be split. It answers false
// without a call at or beyond maxDepth, and on any failure.
func (g *Gateway) ShouldDecompose(ctx context.Context, problem string, depth, maxDepth int) bool {
	if depth >= maxDepth {
		return false
	}

	start := time.Now()
	content, ok, err := g.call(ctx, OpShouldDecompose, fmt.Sprintf(decidePrompt, problem))
	if err != nil || !ok {
		return false
	}

	decision, perr := parse.DecodeDecision(content)
	g.finish(OpShouldDecompose, start, perr, content)
	if perr != nil {
		return strings.Contains(strings.ToUpper(content), string(parse.DecisionDecompose))
	}
	return decision == parse.DecisionDecompose
}

// BreakDown asks for at most maxWidth independent subproblems. It always
// returns at least one item: when nothing usable comes back, the single item
// restates the problem.
func (g *Gateway) BreakDown(ctx context.Context, problem, rootQuestion string, maxWidth int) []string {
	if maxWidth < 1 {
		maxWidth = 1
	}
	direct := []string{directPrefix + problem}

	start := time.Now()
	prompt := fmt.Sprintf(breakDownPrompt, problem, rootQuestion, maxWidth, maxWidth, maxWidth)
	content, ok, err := g.call(ctx, OpBreakDown, prompt)
	if err != nil || !ok {
		return direct
	}

	subproblems, perr := parse.DecodeSubproblems(content, maxWidth)
	g.finish(OpBreakDown, start, perr, content)
	if perr != nil {
		subproblems = parse.ListItems(content)
		if len(subproblems) == 0 {
			subproblems = parse.CommaSplit(content)
		}
		subproblems = parse.Truncate(subproblems, maxWidth)
	}

	if len(subproblems) == 0 {
		g.logger.Debug("no usable subproblems, restating problem", zap.String("problem", logging.Truncate(problem, 100)))
		return direct
	}
	return subproblems
}

// Combine asks the Oracle to synthesise an answer from solved subproblems.
// Callers pass only the pairs whose solutions are usable.
func (g *Gateway) Combine(ctx context.Context, problem, rootQuestion string, subproblems, subSolutions []string) string {
	n := len(subproblems)
	if len(subSolutions) < n {
		n = len(subSolutions)
	}

	var pairs strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&pairs, "Subproblem %d: \"%s\"\n", i+1, subproblems[i])
		fmt.Fprintf(&pairs, "Solution %d: %s\n\n", i+1, subSolutions[i])
	}

	start := time.Now()
	content, ok, err := g.call(ctx, OpCombine, fmt.Sprintf(combinePrompt, rootQuestion, problem, pairs.String()))
	if err != nil {
		return fmt.Sprintf("%s combining solutions: %v", models.ErrorMarker, err)
	}
	if !ok {
		return noCombineSolution
	}

	reply, perr := parse.DecodeCombined(content)
	g.finish(OpCombine, start, perr, content)
	if perr != nil {
		if s, found := parse.QuotedField(content, parse.FieldCombinedSolution); found {
			return s
		}
		return strings.TrimSpace(content)
	}
	if !reply.Found || strings.TrimSpace(reply.Solution) == "" {
		return content
	}
	return reply.Solution
}
