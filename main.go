package main

import (
	"NovaFM/cmd"
)

func main() {
	cmd.Execute()
}
