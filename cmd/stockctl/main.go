package main

import "stockapi/cmd/stockctl/commands"

func main() {
	commands.Execute()
}
