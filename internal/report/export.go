package report

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/dgot/pkg/models"
)

// Format selects the output encoding of a report.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json or yaml)", s)
	}
}

// JSON encodes the whole tree as indented JSON.
func JSON(node *models.ResultNode) ([]byte, error) {
	data, err := json.MarshalIndent(node, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result tree: %w", err)
	}
	return data, nil
}

// YAML encodes the whole tree as YAML.
func YAML(node *models.ResultNode) ([]byte, error) {
	data, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("marshal result tree: %w", err)
	}
	return data, nil
}

// Stats summarises the shape of a tree.
type Stats struct {
	Nodes     int `json:"nodes" yaml:"nodes"`
	Atomic    int `json:"atomic" yaml:"atomic"`
	Composite int `json:"composite" yaml:"composite"`
	Failed    int `json:"failed" yaml:"failed"`
	MaxDepth  int `json:"max_depth" yaml:"max_depth"`
}

// Summarize walks the tree and counts its nodes. A node is failed when its
// solution carries the error marker.
func Summarize(node *models.ResultNode) Stats {
	var s Stats
	node.Walk(func(n *models.ResultNode) bool {
		s.Nodes++
		if n.Atomic {
			s.Atomic++
		} else {
			s.Composite++
		}
		if models.IsFailure(n.Solution) {
			s.Failed++
		}
		if n.Depth > s.MaxDepth {
			s.MaxDepth = n.Depth
		}
		return true
	})
	return s
}

// String formats the stats on one line.
func (s Stats) String() string {
	return fmt.Sprintf("%d nodes (%d atomic, %d composite, %d failed), max depth %d",
		s.Nodes, s.Atomic, s.Composite, s.Failed, s.MaxDepth)
}
