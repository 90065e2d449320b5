package main

import "github.com/cjsesm/cjsesm/cmd/cjsesm/commands"

func main() {
	commands.Execute()
}
