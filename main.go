package main

import "github.com/randquik/randquik/cmd"

func main() {
	cmd.Execute()
}
