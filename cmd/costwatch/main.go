package main

import "github.com/costwatch/costwatch/internal/cli"

func main() {
	cli.Execute()
}
