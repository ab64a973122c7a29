package main

import "github.com/zjrosen/gitdeck/cmd"

func main() {
	cmd.Execute()
}
