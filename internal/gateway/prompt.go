package gateway

// atomicPrompt asks for a direct answer.
// Args: root question, problem.
const atomicPrompt = `This is a specific problem related to the original question: "%s"

Solve this problem directly: %s

CRITICAL FORMAT REQUIREMENTS:
Your entire response MUST be a single JSON object and nothing else.
Required format: {"solution": "your answer"}

Do NOT add:
- explanation text
- markdown formatting, code blocks or backticks
- additional keys
- comments or an introduction such as "Here's the solution:"

Correct examples:
{"solution": "The square root of 16 is 4"}
{"solution": "To solve this, multiply 5 by 3 to get 15"}

Incorrect example:
Here's the solution: {"solution": "answer"}`

// decidePrompt asks whether a problem should be split.
// Args: problem.
const decidePrompt = `Consider this problem: %s

Should this problem be broken down into smaller subproblems? Use these strict criteria:
1. The problem MUST involve multiple INDEPENDENT steps or components that can be solved separately
2. Each subproblem should be clearly distinct with NO OVERLAP in what they're asking
3. The combined solutions must be sufficient to answer the original problem
4. If the problem is focused and specific enough to answer in one step, it is atomic

FORMAT RULES:
1. Your entire response MUST be a valid JSON object
2. The JSON MUST contain EXACTLY ONE key named "decision"
3. The "decision" value MUST be EXACTLY either "DECOMPOSE" or "ATOMIC"
4. NO markdown, NO code blocks, NO backticks, NO additional text

Required JSON structure:
{"decision": "DECOMPOSE"} or {"decision": "ATOMIC"}

Bad response example: ` + "```" + `{"decision": "DECOMPOSE"}` + "```" + `
Bad response example: I think we should decompose: {"decision": "DECOMPOSE"}
Good response example: {"decision": "DECOMPOSE"}`

// breakDownPrompt asks for independent subproblems.
// Args: problem, root question, max width (x3).
const breakDownPrompt = `Break down this problem into independent subproblems:

Problem: %s
Original question: %s

Requirements for the subproblems:
1. Each subproblem MUST be completely independent and solvable on its own
2. There MUST be NO OVERLAP between subproblems
3. The subproblems must be specific and focused
4. When combined, the solutions MUST fully answer the original problem
5. Choose 1-%d subproblems maximum, based on what's truly necessary

FORMAT RULES:
1. Your entire response MUST be a valid JSON object
2. The JSON MUST contain EXACTLY ONE key named "subproblems"
3. The value MUST be an array of strings with AT MOST %d items
4. NO markdown, NO code blocks, NO backticks, NO additional text

Required JSON structure (at most %d items):
{"subproblems": ["First independent subproblem", "Second independent subproblem"]}`

// combinePrompt asks for a synthesis of solved subproblems.
// Args: root question, problem, enumerated subproblem/solution pairs.
const combinePrompt = `I've broken a complex problem into subproblems and solved each one.

Original question: %s
Current problem to solve: %s

%s
Using ALL of these solutions, provide a complete but concise answer to the current problem.
Be direct and include only what's necessary.

IMPORTANT: Your response MUST be ONLY valid JSON with a single key "combined_solution" containing your answer.
Do NOT include markdown code blocks, backticks, or any other formatting.
Example of correct response: {"combined_solution": "Your complete answer here"}`
