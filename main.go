package main

import "platter/cmd"

func main() {
	cmd.Execute()
}
