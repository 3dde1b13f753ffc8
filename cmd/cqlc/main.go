// Command cqlc compiles CQL queries into Solr query strings.
package main

import (
	"context"
	"os"

	"github.com/nlstn/go-cql/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
