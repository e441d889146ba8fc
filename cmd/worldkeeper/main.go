// Package main provides the worldkeeper CLI.
package main

import "github.com/mesh-intelligence/worldstore/internal/cli"

func main() {
	cli.Execute()
}
