package main

import (
	"log"

	"github.com/thiagokokada/gitree-go/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitree-go: %v", err)
	}
}
