package main

import (
	"os"

	"github.com/labinot-bajgora/ECK-safety/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
