// Package main is the voxelnav command.
package main

import (
	"log"
	"os"

	"go.viam.com/voxelnav/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
