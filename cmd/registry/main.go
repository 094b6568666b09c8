package main

import "github.com/eso-addons/registry/cmd"

func main() {
	cmd.Execute()
}
