// dailycommute-lambda publishes one edition of the daily page per
// invocation, typically triggered by an EventBridge schedule.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/cpuguy83/dailycommute/internal/commute"
	"github.com/cpuguy83/dailycommute/internal/config"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "DAILYCOMMUTE_CONFIG"

// Event is the invocation payload. Scheduled invocations send an empty one.
type Event struct {
	NoUpload bool `json:"no_upload,omitempty"`
}

// Response summarizes the published edition.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Events     int    `json:"events"`
	Uploaded   bool   `json:"uploaded"`
}

var publish = commute.Run

func loadConfig() (*config.Config, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func handler(ctx context.Context, event Event) (Response, error) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return Response{StatusCode: 500, Message: "config error"}, err
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		return Response{StatusCode: 500, Message: "config error"}, err
	}

	res, err := publish(ctx, cfg, commute.Options{NoUpload: event.NoUpload})
	if err != nil {
		slog.Error("edition failed", "error", err)
		return Response{StatusCode: 500, Message: "edition failed"}, err
	}

	slog.Info("edition published", "events", res.Events, "uploaded", res.Uploaded)
	return Response{
		StatusCode: 200,
		Message:    "edition published",
		Events:     res.Events,
		Uploaded:   res.Uploaded,
	}, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	lambda.Start(handler)
}
