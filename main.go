package main

import (
	"log"

	"yashubustudio/assessor/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("assessor: %v", err)
	}
}
