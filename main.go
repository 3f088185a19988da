// bugbook is the CLI for bugbook, a personal bug log kept next to your code.
package main

import (
	"fmt"
	"os"

	"bugbook/internal/cmd"
)

var (
	run    = func() error { return cmd.Execute() }
	osExit = os.Exit
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		osExit(1)
	}
}
