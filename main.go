// The main package for the unimall crawler executable.
package main

import (
	"github.com/alibyilmaz/unimallaicase/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
