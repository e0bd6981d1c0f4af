// Command dgot recursively decomposes a question into subproblems, solves them
// in parallel against an LLM, and combines the answers.
package main

func main() {
	Execute()
}
