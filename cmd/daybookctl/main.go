// Package main is the entry point for the daybookctl admin CLI.
package main

import "github.com/daybook-edu/daybook/internal/cli"

func main() {
	cli.Execute()
}
