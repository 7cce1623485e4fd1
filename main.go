package main

import "ragchat-cli/cmd"

func main() {
	cmd.Execute()
}
