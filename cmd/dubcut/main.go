package main

import "github.com/Bitshifter-9/kannada-hindi/internal/cli"

func main() {
	cli.Main()
}
