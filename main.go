package main

import "github.com/mechmaster/subscription-management/cmd"

func main() {
	cmd.Execute()
}
