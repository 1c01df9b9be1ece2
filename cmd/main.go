package main

import "github.com/dyike/StockPilot/internal/cli"

func main() {
	cli.Run()
}
