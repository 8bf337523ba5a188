package main

import "github.com/alphabot-ai/storyx/internal/cli"

func main() {
	cli.Execute()
}
