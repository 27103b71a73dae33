package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"roulette/internal/server"
)

func main() {
	srv, err := server.New()
	if err != nil {
		log.Fatalf("[SERVER] Startup failed: %v", err)
	}
	srv.RegisterFiberRoutes()

	port := server.LoadConfig().Port
	go func() {
		if err := srv.Listen(fmt.Sprintf(":%d", port)); err != nil {
			log.Panicf("[SERVER] Failed to start server: %v", err)
		}
	}()
	log.Printf("[SERVER] Listening on :%d", port)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("[SERVER] Gracefully shutting down...")
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("[SERVER] Forced to shutdown: %v", err)
	}
	log.Println("[SERVER] Server exited cleanly")
}
