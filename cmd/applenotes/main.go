package main

import "applenotes/cmd/applenotes/cmd"

func main() {
	cmd.Execute()
}
