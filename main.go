package main

import "github.com/KaramelBytes/tabex/cmd"

func main() {
	cmd.Execute()
}
