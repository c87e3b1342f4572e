// The main package for the linkextractor executable.
package main

import (
	"github.com/JakeFAU/linkextractor/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
