// Package lambda adapts API Gateway invocations onto the tile server
// core. Both payload shapes are supported: the v2 HTTP API exposes the
// raw request path, the v1 REST proxy exposes an archive-relative path
// fragment that needs its leading slash restored.
package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/usecase"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/logger"
)

type Handler struct {
	serveUseCase *usecase.TileServerUseCase
	logger       logger.Logger
}

func NewHandler(uc *usecase.TileServerUseCase, l logger.Logger) *Handler {
	return &Handler{
		serveUseCase: uc,
		logger:       l,
	}
}

// Handle serves one invocation. API Gateway does not compress responses,
// so tile bodies are gzip-encoded here.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (events.APIGatewayProxyResponse, error) {
	path, hostHint, ok := normalizeEvent(raw)
	if !ok {
		h.logger.Warn("unrecognized invocation payload")
		return events.APIGatewayProxyResponse{
			StatusCode: 400,
			Body:       "unrecognized event",
		}, nil
	}

	resp := h.serveUseCase.Serve(ctx, path, hostHint, true)

	out := events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
	}
	if resp.Binary {
		out.Body = base64.StdEncoding.EncodeToString(resp.Body)
		out.IsBase64Encoded = true
	} else {
		out.Body = string(resp.Body)
	}

	return out, nil
}

func normalizeEvent(raw json.RawMessage) (path, hostHint string, ok bool) {
	var v2 events.APIGatewayV2HTTPRequest
	if err := json.Unmarshal(raw, &v2); err == nil && v2.RawPath != "" {
		return v2.RawPath, headerValue(v2.Headers, "x-forwarded-host"), true
	}

	var v1 events.APIGatewayProxyRequest
	if err := json.Unmarshal(raw, &v1); err == nil {
		if fragment := v1.PathParameters["proxy"]; fragment != "" {
			return "/" + fragment, headerValue(v1.Headers, "x-forwarded-host"), true
		}
		if v1.Path != "" {
			return v1.Path, headerValue(v1.Headers, "x-forwarded-host"), true
		}
	}

	return "", "", false
}

func headerValue(headers map[string]string, name string) string {
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}
