// Explorer CLI
//
// A terminal front end for the category explorer engine: prints the
// group/subgroup/file tree, runs searches, and triggers rebuilds against a
// QuantumStore server (or --demo fixture data).
package main

import (
	"github.com/quantumstore/quantumstore/internal/cli"
)

func main() {
	cli.Execute()
}
