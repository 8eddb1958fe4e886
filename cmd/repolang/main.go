package main

import "github.com/petrarca/repolang/internal/cmd"

func main() {
	cmd.Execute()
}
