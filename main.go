package main

import "replctl/internal/cli"

func main() {
	cli.Execute()
}
