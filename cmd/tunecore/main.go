package main

import "github.com/tejashwikalptaru/tunecore/internal/cli"

func main() {
	cli.Execute()
}
