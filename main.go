package main

import "github.com/pviana/agenda/cmd"

func main() {
	cmd.Execute()
}
