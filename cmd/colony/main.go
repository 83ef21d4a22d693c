package main

import (
	"github.com/andrescamacho/colonyforge/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
