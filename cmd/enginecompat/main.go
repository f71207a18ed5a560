// Package main is the entry point for the enginecompat binary, which runs
// the cross-engine table compatibility suite.
package main

import (
	"os"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	os.Exit(execute())
}
