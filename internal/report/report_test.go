package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/dgot/pkg/models"
)

func sampleTree() *models.ResultNode {
	root := "Plan a trip to Paris"
	sights := models.NewAtomic("b", "sights", root, 1, "Louvre and Eiffel Tower")
	food := models.NewAtomic("c", "food", root, 1, "Error solving this part: timeout")
	return models.NewComposite("a", root, root, 0, "Day 1 Louvre, day 2 crepes", []*models.ResultNode{sights, food})
}

func TestString_Composite(t *testing.T) {
	want := strings.Join([]string{
		"Problem: Plan a trip to Paris",
		"Final solution: Day 1 Louvre, day 2 crepes",
		"Subproblems (1/2 successful):",
		"  #1 [OK]:",
		"    [ATOMIC] sights",
		"    Solution: Louvre and Eiffel Tower",
		"  #2 [FAILED]:",
		"    [ATOMIC] food",
		"    Solution: Error solving this part: timeout",
	}, "\n")

	if diff := cmp.Diff(want, String(sampleTree())); diff != "" {
		t.Errorf("String mismatch (-want +got):\n%s", diff)
	}
}

func TestString_Atomic(t *testing.T) {
	node := models.NewAtomic("a", "What is 2+2?", "What is 2+2?", 0, "4")

	want := "[ATOMIC] What is 2+2?\nSolution: 4"
	if got := String(node); got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

func TestString_NestedIndentation(t *testing.T) {
	root := "r"
	leaf := models.NewAtomic("c", "leaf", root, 2, "x")
	mid := models.NewComposite("b", "mid", root, 1, "y", []*models.ResultNode{leaf})
	top := models.NewComposite("a", root, root, 0, "z", []*models.ResultNode{mid})

	out := String(top)
	for _, want := range []string{
		"\n  #1 [OK]:\n    Problem: mid\n    Final solution: y\n    Subproblems (1/1 successful):\n      #1 [OK]:\n        [ATOMIC] leaf\n        Solution: x",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing nested block:\n%s", out)
		}
	}
}

func TestString_Truncate(t *testing.T) {
	long := strings.Repeat("é", 150)
	node := models.NewAtomic("a", long, long, 0, "short")

	lines := strings.Split(String(node), "\n")
	want := "[ATOMIC] " + strings.Repeat("é", 100) + "..."
	if lines[0] != want {
		t.Errorf("default truncation = %q", lines[0])
	}

	lines = strings.Split(String(node, WithTruncate(5)), "\n")
	if lines[0] != "[ATOMIC] ééééé..." {
		t.Errorf("WithTruncate(5) = %q", lines[0])
	}

	lines = strings.Split(String(node, WithTruncate(0)), "\n")
	if lines[0] != "[ATOMIC] "+long {
		t.Error("WithTruncate(0) should disable truncation")
	}
}

func TestString_Color(t *testing.T) {
	plain := String(sampleTree())
	colored := String(sampleTree(), WithColor(true))

	if plain == colored {
		t.Fatal("colored output should differ from plain output")
	}
	if !strings.Contains(colored, "\x1b[") {
		t.Errorf("colored output has no escape sequences:\n%q", colored)
	}
	if !strings.Contains(colored, "[FAILED]") {
		t.Errorf("colored output lost the status text:\n%q", colored)
	}
}

func TestRender_MatchesString(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleTree()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got, want := buf.String(), String(sampleTree())+"\n"; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestTally(t *testing.T) {
	ok, total := Tally(sampleTree())
	if ok != 1 || total != 2 {
		t.Errorf("Tally = %d/%d, want 1/2", ok, total)
	}

	ok, total = Tally(models.NewAtomic("a", "p", "p", 0, "s"))
	if ok != 0 || total != 0 {
		t.Errorf("atomic Tally = %d/%d, want 0/0", ok, total)
	}
}

func TestTally_ParseErrorCountsAsOK(t *testing.T) {
	child := models.NewAtomic("b", "x", "r", 1, "JSON parse error. Raw response: ?")
	node := models.NewComposite("a", "r", "r", 0, "s", []*models.ResultNode{child})

	if ok, _ := Tally(node); ok != 1 {
		t.Errorf("Tally ok = %d, want 1 (only the error marker counts as failed)", ok)
	}
}

func TestJSON(t *testing.T) {
	data, err := JSON(sampleTree())
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	var got models.ResultNode
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(sampleTree(), &got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Contains(data, []byte(`"sub_solutions"`)) {
		t.Errorf("JSON missing snake_case keys:\n%s", data)
	}
}

func TestYAML(t *testing.T) {
	data, err := YAML(sampleTree())
	if err != nil {
		t.Fatalf("YAML failed: %v", err)
	}

	var got models.ResultNode
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Children[1].Solution != "Error solving this part: timeout" {
		t.Errorf("child solution = %q", got.Children[1].Solution)
	}
	if !bytes.Contains(data, []byte("root_question:")) {
		t.Errorf("YAML missing root_question:\n%s", data)
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(sampleTree())
	want := Stats{Nodes: 3, Atomic: 2, Composite: 1, Failed: 1, MaxDepth: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
	if s := got.String(); s != "3 nodes (2 atomic, 1 composite, 1 failed), max depth 1" {
		t.Errorf("Stats.String = %q", s)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"", FormatText, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
