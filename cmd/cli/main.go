package main

import "github.com/voter-segmentation/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
