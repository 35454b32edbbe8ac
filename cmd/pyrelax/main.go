package main

import "pyrelax/internal/cli"

func main() {
	cli.Execute()
}
