package main

import "hw-isolation/cmd"

func main() {
	cmd.Execute()
}
