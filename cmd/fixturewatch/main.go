package main

import (
	"github.com/longnd/fixturewatch/internal/cli"
)

func main() {
	cli.Execute()
}
