package main

import "github.com/rustyeddy/orb/internal/cli"

func main() {
	cli.Execute()
}
