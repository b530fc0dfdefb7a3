package main

import "adhoc-index/internal/cli"

func main() {
	cli.Execute()
}
