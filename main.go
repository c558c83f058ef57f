package main

import "thoreinstein.com/histng/cmd"

func main() {
	cmd.Execute()
}
