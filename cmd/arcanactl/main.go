package main

import "github.com/randomtoy/arcana-go/internal/cli"

func main() {
	cli.Execute()
}
