package main

import "github.com/lynkbyte/evolution-bridge/internal/cli"

func main() {
	cli.Execute()
}
