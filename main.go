package main

import "camhub/cmd"

func main() {
	cmd.Execute()
}
