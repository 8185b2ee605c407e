// Command server runs the multi-reactor HTTP/1.1 demo server.
package main

import (
	"fmt"
	"os"

	"reactor-demo/internal/config"
	"reactor-demo/internal/diag"
	"reactor-demo/internal/server"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := config.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return server.ExitStartupErr
	}

	log := diag.New(opts.Verbose)
	log.Debugf("parsed options: %+v", opts)

	return server.Run(opts, log)
}
