package models

import (
	"errors"
	"fmt"
	"strings"
)

// Reserved solution prefixes. A solution starting with one of these never
// feeds a combine step.
const (
	// ErrorMarker tags solutions produced by a failed Oracle call or a failed branch.
	ErrorMarker = "Error"
	// ParseErrorMarker tags atomic solutions whose Oracle reply could not be decoded.
	ParseErrorMarker = "JSON parse error"
)

// Messages used for synthetic nodes.
const (
	// NotProcessedSolution fills a child slot that never received a result.
	NotProcessedSolution = "This subproblem was not processed."
	// BranchErrorPrefix prefixes the solution of a branch that failed outright.
	BranchErrorPrefix = "Error solving this part: "
)

// ErrInvalidTree indicates a result tree that violates its structural invariants.
var ErrInvalidTree = errors.New("invalid result tree")

// IsFailure reports whether a solution carries the error marker.
// This is the test used when tallying successful children.
func IsFailure(solution string) bool {
	return strings.HasPrefix(solution, ErrorMarker)
}

// IsUsable reports whether a solution may be handed to a combine step.
func IsUsable(solution string) bool {
	return !strings.HasPrefix(solution, ErrorMarker) && !strings.HasPrefix(solution, ParseErrorMarker)
}

// NodeKind classifies a ResultNode for logging and metrics.
type NodeKind string

const (
	// NodeKindAtomic is a node solved directly.
	NodeKindAtomic NodeKind = "atomic"
	// NodeKindComposite is a node solved by combining its children.
	NodeKindComposite NodeKind = "composite"
	// NodeKindFailed is a synthetic atomic node standing in for a failed branch.
	NodeKindFailed NodeKind = "failed"
	// NodeKindPlaceholder is a synthetic atomic node for a slot with no result.
	NodeKindPlaceholder NodeKind = "placeholder"
)

// ResultNode is one node of a decomposition tree.
// A node is fully populated before it is returned and is not modified afterwards.
type ResultNode struct {
	// ID is a short identifier used to correlate log lines and exports.
	ID string `json:"id" yaml:"id"`
	// Problem is the text of the (sub)problem this node answers.
	Problem string `json:"problem" yaml:"problem"`
	// RootQuestion is the original top-level question, identical in every node of a tree.
	RootQuestion string `json:"root_question" yaml:"root_question"`
	// Depth is the distance from the root node (root = 0).
	Depth int `json:"depth" yaml:"depth"`
	// Atomic is true if this node was solved directly.
	Atomic bool `json:"atomic" yaml:"atomic"`
	// Solution is the answer for this node.
	Solution string `json:"solution" yaml:"solution"`
	// Subproblems lists the child problem texts, in dispatch order.
	Subproblems []string `json:"subproblems,omitempty" yaml:"subproblems,omitempty"`
	// SubSolutions lists the child answers, index-aligned with Subproblems.
	SubSolutions []string `json:"sub_solutions,omitempty" yaml:"sub_solutions,omitempty"`
	// Children holds the child nodes, index-aligned with Subproblems.
	Children []*ResultNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewAtomic creates a node that was solved directly.
func NewAtomic(id, problem, rootQuestion string, depth int, solution string) *ResultNode {
	return &ResultNode{
		ID:           id,
		Problem:      problem,
		RootQuestion: rootQuestion,
		Depth:        depth,
		Atomic:       true,
		Solution:     solution,
	}
}

// NewComposite creates a node from its children. Subproblems and SubSolutions
// are derived from children so the three slices cannot drift apart.
func NewComposite(id, problem, rootQuestion string, depth int, solution string, children []*ResultNode) *ResultNode {
	subproblems := make([]string, len(children))
	subSolutions := make([]string, len(children))
	for i, child := range children {
		subproblems[i] = child.Problem
		subSolutions[i] = child.Solution
	}

	return &ResultNode{
		ID:           id,
		Problem:      problem,
		RootQuestion: rootQuestion,
		Depth:        depth,
		Atomic:       false,
		Solution:     solution,
		Subproblems:  subproblems,
		SubSolutions: subSolutions,
		Children:     children,
	}
}

// Walk visits the node and all descendants in pre-order.
// Returning false from fn skips the children of that node.
func (n *ResultNode) Walk(fn func(*ResultNode) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Validate checks the structural invariants of the whole tree rooted at n:
// atomic nodes have no children, composite slices are index-aligned, depth
// grows by one per level, no node exceeds maxDepth, nodes at maxDepth are
// atomic, and no composite node has more than maxWidth children.
func (n *ResultNode) Validate(maxDepth, maxWidth int) error {
	var err error
	n.Walk(func(node *ResultNode) bool {
		if err != nil {
			return false
		}
		err = node.validateNode(maxDepth, maxWidth)
		return err == nil
	})
	return err
}

func (n *ResultNode) validateNode(maxDepth, maxWidth int) error {
	if n.Depth > maxDepth {
		return fmt.Errorf("%w: node %s at depth %d exceeds max depth %d", ErrInvalidTree, n.ID, n.Depth, maxDepth)
	}

	if n.Atomic {
		if len(n.Subproblems) != 0 || len(n.SubSolutions) != 0 || len(n.Children) != 0 {
			return fmt.Errorf("%w: atomic node %s has children", ErrInvalidTree, n.ID)
		}
		return nil
	}

	if n.Depth == maxDepth {
		return fmt.Errorf("%w: node %s at max depth %d is not atomic", ErrInvalidTree, n.ID, maxDepth)
	}
	if len(n.Children) == 0 {
		return fmt.Errorf("%w: composite node %s has no children", ErrInvalidTree, n.ID)
	}
	if len(n.Subproblems) != len(n.Children) || len(n.SubSolutions) != len(n.Children) {
		return fmt.Errorf("%w: node %s has %d subproblems, %d sub-solutions, %d children",
			ErrInvalidTree, n.ID, len(n.Subproblems), len(n.SubSolutions), len(n.Children))
	}
	if len(n.Children) > maxWidth {
		return fmt.Errorf("%w: node %s has %d children, max width is %d", ErrInvalidTree, n.ID, len(n.Children), maxWidth)
	}

	for i, child := range n.Children {
		if child == nil {
			return fmt.Errorf("%w: node %s has nil child at index %d", ErrInvalidTree, n.ID, i)
		}
		if child.Problem != n.Subproblems[i] {
			return fmt.Errorf("%w: node %s child %d problem %q != subproblem %q", ErrInvalidTree, n.ID, i, child.Problem, n.Subproblems[i])
		}
		if child.Solution != n.SubSolutions[i] {
			return fmt.Errorf("%w: node %s child %d solution does not match sub-solution", ErrInvalidTree, n.ID, i)
		}
		if child.Depth != n.Depth+1 {
			return fmt.Errorf("%w: node %s child %d at depth %d, want %d", ErrInvalidTree, n.ID, i, child.Depth, n.Depth+1)
		}
		if child.RootQuestion != n.RootQuestion {
			return fmt.Errorf("%w: node %s child %d has a different root question", ErrInvalidTree, n.ID, i)
		}
	}

	return nil
}
