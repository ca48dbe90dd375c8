package main

import "github.com/sergev/spectran/cmd"

func main() {
	cmd.Execute()
}
