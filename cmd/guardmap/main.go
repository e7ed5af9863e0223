// guardmap evaluates agent tool calls against guardrail policies and maps
// those policies onto compliance frameworks.
package main

import "github.com/ppiankov/guardmap/internal/cli"

func main() {
	cli.Execute()
}
