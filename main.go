package main

import "github.com/Tiliavir/stopwatch/cmd"

func main() {
	cmd.Execute()
}
