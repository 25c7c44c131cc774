package main

import "github.com/samsaffron/quest-buddy/cmd"

func main() {
	cmd.Execute()
}
