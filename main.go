// httpredirect answers every HTTP request with a redirect to a fixed
// destination and satisfies Apple captive-portal probes once a client
// has been redirected.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"httpredirect/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "httpredirect: %v\n", err)
		os.Exit(1)
	}
}
