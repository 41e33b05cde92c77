package main

import (
	"log"

	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/app"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/config"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	app.Run(cfg)
}
