// Command broker runs the sandbox code-execution broker.
package main

import (
	"fmt"
	"os"

	"github.com/opensandbox/codebroker/cmd/broker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
