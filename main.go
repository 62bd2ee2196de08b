package main

import "github.com/ezclip/ezclip-api/cmd"

func main() {
	cmd.Execute()
}
