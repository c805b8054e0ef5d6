package main

import "github.com/mrwillibald/nuliga-helper/internal/cli"

func main() {
	cli.Execute()
}
