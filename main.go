// main package for tesc command-line tool
// Package main is the entry point for the tesc CLI.
package main

import "tesc.dev/pkg/tesc/cmd"

func main() {
	cmd.Execute()
}
