package parse

import "strings"

// Field names the Oracle is asked to reply with.
const (
	FieldSolution         = "solution"
	FieldDecision         = "decision"
	FieldSubproblems      = "subproblems"
	FieldCombinedSolution = "combined_solution"
)

// Decision is the Oracle's verdict on whether a problem should be split.
type Decision string

const (
	DecisionDecompose Decision = "DECOMPOSE"
	DecisionAtomic    Decision = "ATOMIC"
	// DecisionUnknown is returned when the field is missing or unrecognised.
	DecisionUnknown Decision = ""
)

// SolutionReply is a decoded {"solution": ...} reply.
type SolutionReply struct {
	Solution string
	// Found is false when the payload decoded but had no solution field.
	Found bool
}

// DecodeSolution decodes an atomic-solve reply.
func DecodeSolution(text string) (SolutionReply, error) {
	payload, err := Extract(text)
	if err != nil {
		return SolutionReply{}, err
	}
	s, ok := payload.String(FieldSolution)
	return SolutionReply{Solution: s, Found: ok}, nil
}

// DecodeDecision decodes a {"decision": "DECOMPOSE"|"ATOMIC"} reply.
func DecodeDecision(text string) (Decision, error) {
	payload, err := Extract(text)
	if err != nil {
		return DecisionUnknown, err
	}
	s, _ := payload.String(FieldDecision)
	switch Decision(strings.ToUpper(strings.TrimSpace(s))) {
	case DecisionDecompose:
		return DecisionDecompose, nil
	case DecisionAtomic:
		return DecisionAtomic, nil
	default:
		return DecisionUnknown, nil
	}
}

// DecodeSubproblems decodes a {"subproblems": [...]} reply, keeping at most
// limit non-empty string items. A limit below 1 keeps everything.
func DecodeSubproblems(text string, limit int) ([]string, error) {
	payload, err := Extract(text)
	if err != nil {
		return nil, err
	}
	return Truncate(payload.Strings(FieldSubproblems), limit), nil
}

// CombinedReply is a decoded {"combined_solution": ...} reply.
type CombinedReply struct {
	Solution string
	Found    bool
}

// DecodeCombined decodes a combine reply.
func DecodeCombined(text string) (CombinedReply, error) {
	payload, err := Extract(text)
	if err != nil {
		return CombinedReply{}, err
	}
	s, ok := payload.String(FieldCombinedSolution)
	return CombinedReply{Solution: s, Found: ok}, nil
}

// Truncate returns at most limit items. A limit below 1 returns items unchanged.
func Truncate(items []string, limit int) []string {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
