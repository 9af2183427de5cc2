package main

import "github.com/kyrylo/fast-method-source/internal/cli"

func main() {
	cli.Execute()
}
