// Oppdesk is a conversational assistant for tracking presales opportunities.
package main

import (
	"fmt"
	"os"

	"github.com/oppdesk/oppdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
