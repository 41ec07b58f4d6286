package main

import "github.com/samirrijal/streamgeo/internal/cli"

func main() {
	cli.Execute()
}
