package main

import (
	"log"

	"github.com/MrSnakeDoc/chatrelay/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("chatrelay failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("chatrelay stopped with error: %v", err)
	}
}
