package main

import (
	cmd "github.com/rasphia/rasphia/cmd/rasphia"
	"github.com/rasphia/rasphia/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting rasphia")
	cmd.Execute()
}
