package main

import (
	"log"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/app"
)

func main() {
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatal(err)
	}
}
