package main

import (
	"os"

	"github.com/cloudrun-items/items-api/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
