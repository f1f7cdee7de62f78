package main

import "github.com/jeremyjsx/postcast/cmd/postcastctl/cmd"

func main() {
	cmd.Execute()
}
