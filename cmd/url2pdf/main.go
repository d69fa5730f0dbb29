// url2pdf converts URLs from text files into PDF documents and
// provisions the environment it needs.
//
// Usage:
//
//	url2pdf setup
//	url2pdf run <input_file_or_directory>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/porticus-lab/url2pdf/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.New().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
