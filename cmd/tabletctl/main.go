// Command tabletctl runs one tablet identification from a local image file
// and prints the report.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/vbonduro/tabletinfo/internal/app"
	"github.com/vbonduro/tabletinfo/internal/config"
	"github.com/vbonduro/tabletinfo/internal/ingest"
	"github.com/vbonduro/tabletinfo/internal/logging"
	"github.com/vbonduro/tabletinfo/internal/service"
)

func main() {
	imagePath := flag.String("image", "", "path to a JPEG or PNG tablet photo")
	hint := flag.String("hint", "", "optional tablet details (imprint, colour, packaging text)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	code := run(cfg, logger, *imagePath, *hint)
	cleanup()
	os.Exit(code)
}

func run(cfg *config.Config, logger *slog.Logger, imagePath, hint string) int {
	svc, err := app.NewAnalysisService(cfg, logger)
	if err != nil {
		logger.Error("failed to configure analysis", "error", err)
		return 1
	}

	sub, err := readSubmission(imagePath, hint)
	if err != nil {
		logger.Error("failed to read image", "path", imagePath, "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := svc.Submit(ctx, sub)
	if err != nil {
		if errors.Is(err, service.ErrModelRequestFailed) {
			fmt.Fprintln(os.Stderr, "Model request failed. Check the backend configuration and API key.")
		}
		logger.Error("analysis failed", "error", err)
		return 1
	}
	fmt.Print(report.Text())
	return 0
}

// readSubmission loads the image at path. An empty path yields a submission
// without an image, which the service answers with the upload notice.
func readSubmission(path, hint string) (service.Submission, error) {
	sub := service.Submission{Hint: hint}
	if path == "" {
		return sub, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return sub, err
	}
	mimeType, ok := ingest.DetectMIME(data)
	if !ok {
		return sub, errors.New("unsupported image format")
	}
	sub.Image, err = ingest.New(bytes.NewReader(data), mimeType)
	return sub, err
}
