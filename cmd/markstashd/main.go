package main

import (
	"log"

	"github.com/markstash/markstash/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ markstash failed to start: %v", err)
	}
}
