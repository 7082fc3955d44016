package main

import "emsdk/internal/cli"

func main() {
	cli.Execute()
}
