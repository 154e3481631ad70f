package main

import "github.com/mcoot/scoutbook/internal/cli"

func main() {
	cli.Execute()
}
