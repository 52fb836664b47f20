package main

import "github.com/snip-cli/snip/cmd"

func main() {
	cmd.Execute()
}
