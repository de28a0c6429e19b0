package main

import "github.com/arkivdb/arkiv/cmd/arkiv/cmd"

func main() {
	cmd.Execute()
}
