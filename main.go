package main

import "ffpopup/internal/cli"

func main() {
	cli.Execute()
}
