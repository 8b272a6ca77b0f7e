package main

import "github.com/harvix/fetchkit/cmd"

func main() {
	cmd.Execute()
}
