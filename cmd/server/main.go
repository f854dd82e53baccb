package main

import (
	"log"

	"leetclone/internal/server"
)

func main() {
	if err := server.StartGinServer(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
