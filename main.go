package main

import "deal-sync/cmd"

func main() {
	cmd.Execute()
}
