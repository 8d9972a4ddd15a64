package main

import "bloxmate/internal/cli"

func main() {
	cli.Execute()
}
