package main

import "github.com/qbitlm/qbit/cmd"

func main() {
	cmd.Execute()
}
