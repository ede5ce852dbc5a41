package main

import "github.com/Rorical/rorigreet/cmd"

func main() {
	cmd.Execute()
}
