// Package solve implements the recursive decomposition engine.
//
// A problem is either answered directly or split into at most maxWidth
// independent subproblems, each solved recursively in its own goroutine.
// Children are joined by index, failed branches are kept in the tree as
// error-tagged atomic nodes, and only the usable answers are combined.
package solve

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/dgot/internal/logging"
	"github.com/ShayCichocki/dgot/internal/metrics"
	"github.com/ShayCichocki/dgot/pkg/models"
)

// Defaults for the recursion bounds.
const (
	DefaultMaxDepth = 4
	DefaultMaxWidth = 3
)

// Gateway is the set of Oracle operations the engine depends on.
// Implementations must be safe for concurrent use.
type Gateway interface {
	SolveAtomic(ctx context.Context, problem, rootQuestion string) string
	ShouldDecompose(ctx context.Context, problem string, depth, maxDepth int) bool
	BreakDown(ctx context.Context, problem, rootQuestion string, maxWidth int) []string
	Combine(ctx context.Context, problem, rootQuestion string, subproblems, subSolutions []string) string
}

// Engine runs bounded recursive decompositions against a Gateway.
// An Engine holds no per-run state and may serve concurrent runs.
type Engine struct {
	gw       Gateway
	maxDepth int
	maxWidth int
	newID    func() string
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the recursion depth ceiling. Negative values are treated as 0.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n < 0 {
			n = 0
		}
		e.maxDepth = n
	}
}

// WithMaxWidth sets the branching factor ceiling. Values below 1 are treated as 1.
func WithMaxWidth(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.maxWidth = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithIDGenerator replaces the node ID source.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// New creates an Engine.
func New(gw Gateway, opts ...Option) *Engine {
	e := &Engine{
		gw:       gw,
		maxDepth: DefaultMaxDepth,
		maxWidth: DefaultMaxWidth,
		newID:    shortID,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger).Named("solve")
	return e
}

// MaxDepth returns the configured depth ceiling.
func (e *Engine) MaxDepth() int { return e.maxDepth }

// MaxWidth returns the configured width ceiling.
func (e *Engine) MaxWidth() int { return e.maxWidth }

func shortID() string {
	return uuid.New().String()[:8]
}

// Run solves prompt as its own root question.
func (e *Engine) Run(ctx context.Context, prompt string) *models.ResultNode {
	return e.Solve(ctx, prompt, prompt, 0)
}

// Answer solves prompt and returns the final solution along with the tree.
func (e *Engine) Answer(ctx context.Context, prompt string) (string, *models.ResultNode) {
	node := e.Run(ctx, prompt)
	return node.Solution, node
}

// Solve answers problem at the given depth. It always returns a fully
// populated node; failures anywhere below are recorded in the tree.
func (e *Engine) Solve(ctx context.Context, problem, rootQuestion string, depth int) *models.ResultNode {
	id := e.newID()
	log := e.logger.With(zap.String("node", id), zap.Int("depth", depth))
	log.Debug("processing problem", zap.String("problem", logging.Truncate(problem, 100)))

	if depth >= e.maxDepth || !e.gw.ShouldDecompose(ctx, problem, depth, e.maxDepth) {
		return e.atomic(ctx, id, problem, rootQuestion, depth)
	}

	subproblems := e.gw.BreakDown(ctx, problem, rootQuestion, e.maxWidth)
	if len(subproblems) == 0 {
		log.Info("empty decomposition, solving directly")
		return e.atomic(ctx, id, problem, rootQuestion, depth)
	}
	if len(subproblems) > e.maxWidth {
		log.Warn("breakdown exceeded width bound, truncating",
			zap.Int("got", len(subproblems)), zap.Int("max_width", e.maxWidth))
		subproblems = subproblems[:e.maxWidth]
	}

	children := e.fanOut(ctx, subproblems, rootQuestion, depth+1)

	var usableProblems, usableSolutions []string
	for _, child := range children {
		if models.IsUsable(child.Solution) {
			usableProblems = append(usableProblems, child.Problem)
			usableSolutions = append(usableSolutions, child.Solution)
		}
	}

	var solution string
	if len(usableProblems) == 0 {
		// Failed children stay attached to the node.
		log.Warn("every subproblem failed, solving original problem directly",
			zap.Int("subproblems", len(children)))
		e.metrics.SubtreeFailure()
		solution = e.gw.SolveAtomic(ctx, problem, rootQuestion)
	} else {
		log.Debug("combining solutions",
			zap.Int("usable", len(usableProblems)), zap.Int("subproblems", len(children)))
		solution = e.gw.Combine(ctx, problem, rootQuestion, usableProblems, usableSolutions)
	}

	e.metrics.Node(models.NodeKindComposite)
	return models.NewComposite(id, problem, rootQuestion, depth, solution, children)
}

// fanOut solves each subproblem in its own goroutine and returns one node per
// subproblem in input order.
func (e *Engine) fanOut(ctx context.Context, subproblems []string, rootQuestion string, depth int) []*models.ResultNode {
	results := make([]*models.ResultNode, len(subproblems))

	var g errgroup.Group
	for i, sub := range subproblems {
		g.Go(func() error {
			node, err := e.solveChild(ctx, sub, rootQuestion, depth)
			if err != nil {
				e.logger.Warn("subproblem failed",
					zap.Int("index", i), zap.Int("depth", depth), zap.Error(err))
				results[i] = e.failed(sub, rootQuestion, depth, err)
				return nil
			}
			e.logger.Debug("subproblem completed", zap.Int("index", i), zap.Int("depth", depth))
			results[i] = node
			return nil
		})
	}
	_ = g.Wait()

	for i, node := range results {
		if node == nil {
			results[i] = e.placeholder(subproblems[i], rootQuestion, depth)
		}
	}
	return results
}

// solveChild runs one recursive branch, converting a cancelled context or a
// panic into an error.
func (e *Engine) solveChild(ctx context.Context, problem, rootQuestion string, depth int) (node *models.ResultNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("subproblem panicked",
				zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			node, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.Solve(ctx, problem, rootQuestion, depth), nil
}

func (e *Engine) atomic(ctx context.Context, id, problem, rootQuestion string, depth int) *models.ResultNode {
	solution := e.gw.SolveAtomic(ctx, problem, rootQuestion)
	e.metrics.Node(models.NodeKindAtomic)
	return models.NewAtomic(id, problem, rootQuestion, depth, solution)
}

func (e *Engine) failed(problem, rootQuestion string, depth int, err error) *models.ResultNode {
	e.metrics.Node(models.NodeKindFailed)
	return models.NewAtomic(e.newID(), problem, rootQuestion, depth, models.BranchErrorPrefix+err.Error())
}

func (e *Engine) placeholder(problem, rootQuestion string, depth int) *models.ResultNode {
	e.metrics.Node(models.NodeKindPlaceholder)
	return models.NewAtomic(e.newID(), problem, rootQuestion, depth, models.NotProcessedSolution)
}
