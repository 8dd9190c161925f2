package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/translatron/pkg/app"
	"github.com/dasmlab/translatron/pkg/config"
	"github.com/dasmlab/translatron/pkg/logging"
	"github.com/dasmlab/translatron/pkg/translatron"
)

// eventHandler is satisfied by *translatron.Translatron.
type eventHandler interface {
	Handle(ctx context.Context, event translatron.InboundEvent) (translatron.Response, error)
}

type proxyHandler struct {
	pipeline eventHandler
}

// Handle maps an API Gateway proxy request onto the pipeline. Pipeline
// errors are returned to the runtime so the invocation is reported as failed.
func (h *proxyHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp, err := h.pipeline.Handle(ctx, translatron.InboundEvent{
		Body:            req.Body,
		IsBase64Encoded: req.IsBase64Encoded,
		Headers:         req.Headers,
	})
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	cfg.Logging.Format = "json"

	logger, err := logging.NewWithWriter(cfg.Logging, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logger")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build pipeline")
	}
	_ = a.StartupCheck(ctx)

	logger.WithFields(logrus.Fields{
		"languages": cfg.Languages,
		"actions":   cfg.Actions,
	}).Info("Lambda handler ready")

	lambda.Start((&proxyHandler{pipeline: a.Pipeline}).Handle)
}
