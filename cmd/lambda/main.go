package main

import (
	"context"
	"log"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/app"
	lambdahandler "github.com/ggaans/Accelerated-PMTiles-Lambda/internal/infrastructure/lambda"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/config"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/logger"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	l := logger.NewZapLogger(cfg.Logger.Level)

	serveUseCase, err := app.NewServeUseCase(context.Background(), cfg, l)
	if err != nil {
		l.Fatal("failed to wire tile server", "error", err)
	}

	h := lambdahandler.NewHandler(serveUseCase, l)

	awslambda.Start(h.Handle)
}
