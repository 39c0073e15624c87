package main

import (
	"log"

	"github.com/farellandr/homestay/internal/server"
)

func main() {
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
