package main

import "github.com/restomenu/menucache/cmd/menucache/cmd"

func main() {
	cmd.Execute()
}
