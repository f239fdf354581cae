package main

import (
	"log"
	"os"

	"github.com/blimu-dev/resource-sdk-gen/internal/cli"
)

func main() {
	log.SetFlags(0)
	if err := cli.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
