package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/tabletinfo/internal/druginfo"
	"github.com/vbonduro/tabletinfo/internal/ingest"
	"github.com/vbonduro/tabletinfo/internal/prompt"
	"github.com/vbonduro/tabletinfo/internal/vision"
)

// ErrModelRequestFailed wraps any failure of the extraction call. The
// submission is abandoned and never retried.
var ErrModelRequestFailed = errors.New("model request failed")

type State string

const (
	StateIdle      State = "idle"
	StateSubmitted State = "submitted"
	StateRendered  State = "rendered"
)

// User-facing notices. Neither is an error.
const (
	NoticeUploadImage     = "Please upload a tablet image to proceed."
	NoticeCouldNotExtract = "Could not extract a tablet name from the image."
)

// Submission is the input of one submit action. Image is nil when the user
// pressed submit without choosing a file.
type Submission struct {
	Image *ingest.ImagePayload
	Hint  string
}

type Link struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Report is what the presentation layer renders for one submission.
type Report struct {
	ID            string               `json:"id"`
	State         State                `json:"state"`
	Mode          string               `json:"mode"`
	PromptVersion string               `json:"prompt_version,omitempty"`
	Notice        string               `json:"notice,omitempty"`
	Summary       string               `json:"summary,omitempty"`
	Name          string               `json:"name,omitempty"`
	Lookups       []druginfo.Result    `json:"lookups,omitempty"`
	WHOLink       *Link                `json:"who_link,omitempty"`
	Image         *ingest.ImagePayload `json:"-"`
}

type AnalysisService struct {
	extractor vision.Extractor
	template  prompt.Template
	lookers   []druginfo.Looker
	logger    *slog.Logger
}

// NewAnalysisService wires one extractor, the instruction template (whose Mode
// selects summary or name behaviour) and the enabled lookup sources. lookers
// are only consulted in name mode.
func NewAnalysisService(
	extractor vision.Extractor,
	template prompt.Template,
	lookers []druginfo.Looker,
	logger *slog.Logger,
) *AnalysisService {
	return &AnalysisService{
		extractor: extractor,
		template:  template,
		lookers:   lookers,
		logger:    logger,
	}
}

func (s *AnalysisService) Mode() string { return s.template.Mode }

// Submit runs one submission from Idle to Rendered. A submission without an
// image returns to Idle with NoticeUploadImage and makes no outbound call.
// Extraction failures return an error wrapping ErrModelRequestFailed; lookup
// failures never do.
func (s *AnalysisService) Submit(ctx context.Context, sub Submission) (*Report, error) {
	report := &Report{
		ID:            uuid.NewString(),
		State:         StateIdle,
		Mode:          s.template.Mode,
		PromptVersion: s.template.Version,
	}
	logger := s.logger.With("submission_id", report.ID)

	if sub.Image == nil {
		logger.Info("submission without image")
		report.Notice = NoticeUploadImage
		return report, nil
	}

	report.State = StateSubmitted
	report.Image = sub.Image
	logger.Info("submission started", "mode", report.Mode, "mime_type", sub.Image.MIMEType(), "bytes", sub.Image.Size(), "hint_len", len(sub.Hint))

	start := time.Now()
	text, err := s.extractor.Extract(ctx, vision.Request{
		Prompt: s.template.Build(sub.Hint),
		Image:  sub.Image,
		Hint:   sub.Hint,
	})
	if err != nil {
		logger.Error("extraction failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrModelRequestFailed, err)
	}
	logger.Info("extraction complete", "duration_ms", time.Since(start).Milliseconds(), "chars", len(text))

	switch s.template.Mode {
	case prompt.ModeName:
		report.Name = vision.ExtractName(text)
		if report.Name == "" {
			report.Notice = NoticeCouldNotExtract
			break
		}
		lookups, err := s.lookup(ctx, logger, report.Name)
		if err != nil {
			return nil, err
		}
		report.Lookups = lookups
	default:
		if strings.TrimSpace(text) == "" {
			report.Notice = NoticeCouldNotExtract
			break
		}
		report.Summary = text
	}

	if report.Notice == "" {
		report.WHOLink = &Link{URL: druginfo.WHOLinkURL, Text: druginfo.WHOLinkText}
	}
	report.State = StateRendered
	logger.Info("submission rendered", "notice", report.Notice, "lookups", len(report.Lookups))
	return report, nil
}

// lookup queries every configured source concurrently. A source that fails at
// the transport level contributes its fallback value; only cancellation of
// ctx aborts the submission.
func (s *AnalysisService) lookup(ctx context.Context, logger *slog.Logger, name string) ([]druginfo.Result, error) {
	if len(s.lookers) == 0 {
		return nil, nil
	}

	results := make([]druginfo.Result, len(s.lookers))
	g, gctx := errgroup.WithContext(ctx)
	for i, l := range s.lookers {
		g.Go(func() error {
			res, err := l.Lookup(gctx, name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("lookup failed, using fallback", "source", l.Source(), "error", err)
				res = druginfo.Fallback(l.Source())
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("lookup cancelled: %w", err)
	}
	return results, nil
}
