// nfequery is the command line client for querying fiscal documents.
package main

import (
	"os"

	"github.com/utilhub/nfequery/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
