package main

import "github.com/michelleprabhu/bankchatbot/cmd"

func main() {
	cmd.Execute()
}
