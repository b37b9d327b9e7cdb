package main

import "github.com/mcpdepot/mcpdepot/internal/cli"

func main() {
	cli.Execute()
}
