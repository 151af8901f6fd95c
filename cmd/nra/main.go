package main

import (
	"log"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
