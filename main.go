package main

import (
	"github.com/AzielCF/az-gym/cmd"
)

func main() {
	cmd.Execute()
}
