package gateway

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ShayCichocki/dgot/internal/metrics"
	"github.com/ShayCichocki/dgot/internal/oracle"
	"github.com/ShayCichocki/dgot/pkg/models"
)

// replyClient returns a fixed reply and records every request.
type replyClient struct {
	content string
	err     error
	calls   atomic.Int32
	last    atomic.Value
}

func (c *replyClient) Complete(ctx context.Context, req oracle.Request) (oracle.Response, error) {
	c.calls.Add(1)
	c.last.Store(req)
	if c.err != nil {
		return oracle.Response{}, c.err
	}
	return oracle.Response{Content: c.content}, nil
}

func (c *replyClient) lastPrompt(t *testing.T) string {
	t.Helper()
	req, ok := c.last.Load().(oracle.Request)
	if !ok {
		t.Fatal("no request recorded")
	}
	return req.Messages[0].Content
}

var errDown = &oracle.CommunicationError{Provider: "openai", Err: errors.New("connection refused")}

func TestSolveAtomic(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
		want    string
	}{
		{"json reply", `{"solution": "4"}`, nil, "4"},
		{"decorated reply", "Here you go:\n```json\n{\"solution\": \"4\"}\n```", nil, "4"},
		{"missing field returns raw", `{"answer": "4"}`, nil, `{"answer": "4"}`},
		{"parse failure", "The answer is 4", nil, "JSON parse error. Raw response: The answer is 4"},
		{"empty content", "   ", nil, "Unable to get a response for this problem."},
		{"communication failure", "", errDown, "Error solving atomic problem. Error: openai call failed: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &replyClient{content: tt.content, err: tt.err}
			gw := New(client)

			got := gw.SolveAtomic(context.Background(), "sqrt of 16", "math homework")
			if got != tt.want {
				t.Errorf("SolveAtomic = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSolveAtomic_PromptAndTemperature(t *testing.T) {
	client := &replyClient{content: `{"solution": "x"}`}
	gw := New(client, WithModel("qwen"))

	gw.SolveAtomic(context.Background(), "find food", "Plan a trip to Paris")

	req := client.last.Load().(oracle.Request)
	if req.Temperature != DefaultTemperature {
		t.Errorf("Temperature = %v, want %v", req.Temperature, DefaultTemperature)
	}
	if req.Model != "qwen" {
		t.Errorf("Model = %q, want qwen", req.Model)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != oracle.RoleUser {
		t.Fatalf("Messages = %+v, want one user turn", req.Messages)
	}
	prompt := req.Messages[0].Content
	if !strings.Contains(prompt, `original question: "Plan a trip to Paris"`) {
		t.Errorf("prompt missing root question:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Solve this problem directly: find food") {
		t.Errorf("prompt missing problem:\n%s", prompt)
	}
}

func TestShouldDecompose(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
		want    bool
	}{
		{"decompose", `{"decision": "DECOMPOSE"}`, nil, true},
		{"atomic", `{"decision": "ATOMIC"}`, nil, false},
		{"lower case", `{"decision": "decompose"}`, nil, true},
		{"parse failure with token", "I would DECOMPOSE this", nil, true},
		{"parse failure lower case token", "decompose please", nil, true},
		{"parse failure without token", "atomic, clearly", nil, false},
		{"empty content", "", nil, false},
		{"communication failure", "", errDown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &replyClient{content: tt.content, err: tt.err}
			gw := New(client)

			if got := gw.ShouldDecompose(context.Background(), "plan a trip", 0, 3); got != tt.want {
				t.Errorf("ShouldDecompose = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldDecompose_DepthBoundSkipsCall(t *testing.T) {
	client := &replyClient{content: `{"decision": "DECOMPOSE"}`}
	gw := New(client)

	if gw.ShouldDecompose(context.Background(), "p", 3, 3) {
		t.Error("ShouldDecompose at max depth should be false")
	}
	if gw.ShouldDecompose(context.Background(), "p", 4, 3) {
		t.Error("ShouldDecompose beyond max depth should be false")
	}
	if n := client.calls.Load(); n != 0 {
		t.Errorf("oracle called %d times, want 0", n)
	}
}

func TestBreakDown(t *testing.T) {
	direct := []string{"Solve the problem directly: plan a trip"}

	tests := []struct {
		name     string
		content  string
		err      error
		maxWidth int
		want     []string
	}{
		{"json", `{"subproblems": ["sights", "food", "budget"]}`, nil, 3, []string{"sights", "food", "budget"}},
		{"json truncated", `{"subproblems": ["a", "b", "c", "d", "e"]}`, nil, 2, []string{"a", "b"}},
		{"json filtered", `{"subproblems": ["", "a", 3, "b"]}`, nil, 3, []string{"a", "b"}},
		{"json empty list", `{"subproblems": []}`, nil, 3, direct},
		{"numbered lines", "1. sights\n2. food\n3. budget\n4. extra", nil, 3, []string{"sights", "food", "budget"}},
		{"bullets", "Parts:\n- sights\n* food", nil, 3, []string{"sights", "food"}},
		{"comma split", "sights, food, budget", nil, 2, []string{"sights", "food"}},
		{"nothing usable", "no idea", nil, 3, direct},
		{"empty content", "", nil, 3, direct},
		{"communication failure", "", errDown, 3, direct},
		{"zero width treated as one", `{"subproblems": ["a", "b"]}`, nil, 0, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &replyClient{content: tt.content, err: tt.err}
			gw := New(client)

			got := gw.BreakDown(context.Background(), "plan a trip", "plan a trip", tt.maxWidth)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BreakDown mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBreakDown_PromptMentionsWidth(t *testing.T) {
	client := &replyClient{content: `{"subproblems": ["a"]}`}
	gw := New(client)

	gw.BreakDown(context.Background(), "problem text", "root text", 4)

	prompt := client.lastPrompt(t)
	for _, want := range []string{"Problem: problem text", "Original question: root text", "Choose 1-4 subproblems", "AT MOST 4 items"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestCombine(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
		want    string
	}{
		{"json", `{"combined_solution": "Day 1 Louvre"}`, nil, "Day 1 Louvre"},
		{"pattern capture", `{"combined_solution": "Day 1 Louvre", broken`, nil, "Day 1 Louvre"},
		{"raw text", "  Day 1 Louvre, day 2 food  ", nil, "Day 1 Louvre, day 2 food"},
		{"missing field returns raw", `{"answer": "x"}`, nil, `{"answer": "x"}`},
		{"empty content", "", nil, "Unable to combine solutions due to model error."},
		{"communication failure", "", errDown, "Error combining solutions: openai call failed: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &replyClient{content: tt.content, err: tt.err}
			gw := New(client)

			got := gw.Combine(context.Background(), "trip", "Plan a trip", []string{"sights"}, []string{"Louvre"})
			if got != tt.want {
				t.Errorf("Combine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCombine_PromptEnumeratesPairs(t *testing.T) {
	client := &replyClient{content: `{"combined_solution": "ok"}`}
	gw := New(client)

	gw.Combine(context.Background(), "trip", "Plan a trip to Paris",
		[]string{"sights", "food"}, []string{"Louvre", "Crepes"})

	prompt := client.lastPrompt(t)
	for _, want := range []string{
		"Original question: Plan a trip to Paris",
		"Current problem to solve: trip",
		`Subproblem 1: "sights"`,
		"Solution 1: Louvre",
		`Subproblem 2: "food"`,
		"Solution 2: Crepes",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestErrorMarkers(t *testing.T) {
	gw := New(&replyClient{err: errDown})
	ctx := context.Background()

	if s := gw.SolveAtomic(ctx, "p", "r"); !models.IsFailure(s) || models.IsUsable(s) {
		t.Errorf("SolveAtomic failure %q should carry the error marker", s)
	}
	if s := gw.Combine(ctx, "p", "r", []string{"a"}, []string{"b"}); !models.IsFailure(s) {
		t.Errorf("Combine failure %q should carry the error marker", s)
	}

	parseFail := New(&replyClient{content: "garbage"})
	if s := parseFail.SolveAtomic(ctx, "p", "r"); models.IsUsable(s) {
		t.Errorf("SolveAtomic parse failure %q should not be usable", s)
	}
}

func TestGateway_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ctx := context.Background()
	New(&replyClient{content: `{"solution": "x"}`}, WithMetrics(m)).SolveAtomic(ctx, "p", "r")
	New(&replyClient{content: "1. a\n2. b"}, WithMetrics(m)).BreakDown(ctx, "p", "r", 3)
	New(&replyClient{err: errDown}, WithMetrics(m)).Combine(ctx, "p", "r", nil, nil)

	var buf bytes.Buffer
	if err := metrics.Write(&buf, reg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`dgot_oracle_calls_total{op="solve_atomic",outcome="ok"} 1`,
		`dgot_oracle_calls_total{op="break_down",outcome="parse_error"} 1`,
		`dgot_oracle_calls_total{op="combine",outcome="comm_error"} 1`,
		`dgot_parse_fallbacks_total{op="break_down"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q:\n%s", want, out)
		}
	}
}
