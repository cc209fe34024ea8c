package main

import "github.com/roomcast/roomcast/cmd/client/cmd"

func main() {
	cmd.Execute()
}
