// Package service provides the export orchestration.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/chatexport/internal/export"
	"github.com/raphaelgruber/chatexport/internal/metrics"
	"github.com/raphaelgruber/chatexport/internal/models"
	"github.com/raphaelgruber/chatexport/internal/prompt"
	"github.com/raphaelgruber/chatexport/internal/save"
)

// User-facing messages.
const (
	msgChatExported    = "Chat exported successfully in %s format!"
	msgAllExported     = "All chats exported successfully in %s format!"
	MsgChatExportError = "Error exporting chat. Please try again later."
	MsgAllExportError  = "Error exporting all chats. Please try again later."
)

// ChatExportedMessage is the alert shown after a single export.
func ChatExportedMessage(f export.Format) string {
	return fmt.Sprintf(msgChatExported, f.Label())
}

// AllExportedMessage is the alert shown after a bulk export.
func AllExportedMessage(f export.Format) string {
	return fmt.Sprintf(msgAllExported, f.Label())
}

// API is the subset of the conversation API used for exports.
type API interface {
	OrganizationID(ctx context.Context) (string, error)
	ListConversations(ctx context.Context, orgID string) ([]models.ConversationSummary, error)
	GetConversation(ctx context.Context, orgID, convID string) (*models.Conversation, error)
}

// Outcome is the result of an export action.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// BatchResult summarizes a bulk export. Outcome is OK whenever the
// organization and the listing were resolved, even if items were skipped.
type BatchResult struct {
	Outcome  Outcome
	Total    int
	Exported []string // conversation ids saved, in listing order
	Skipped  []string // conversation ids that failed, in listing order
	Files    []string // file names saved, parallel to Exported
}

// Progress reports one finished item of a bulk export.
type Progress struct {
	Done           int
	Total          int
	ConversationID string
	Err            error
}

// ProgressFunc receives bulk export progress. It is called synchronously
// from the export loop.
type ProgressFunc func(Progress)

// Options configures an ExportService.
type Options struct {
	Metrics    *metrics.Collector
	Logger     *slog.Logger
	Now        func() time.Time
	OnProgress ProgressFunc
}

// ExportService fetches, converts and saves conversations.
// Every error is caught here; callers only see outcomes.
type ExportService struct {
	api        API
	saver      save.Saver
	prompter   prompt.Prompter
	metrics    *metrics.Collector
	logger     *slog.Logger
	now        func() time.Time
	onProgress ProgressFunc
}

// NewExportService creates an export service.
func NewExportService(api API, saver save.Saver, prompter prompt.Prompter, opts Options) *ExportService {
	s := &ExportService{
		api:        api,
		saver:      saver,
		prompter:   prompter,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		now:        opts.Now,
		onProgress: opts.OnProgress,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// WithPrompter returns a copy of the service reporting to p.
func (s *ExportService) WithPrompter(p prompt.Prompter) *ExportService {
	c := *s
	c.prompter = p
	return &c
}

// WithProgress returns a copy of the service reporting bulk progress to fn.
func (s *ExportService) WithProgress(fn ProgressFunc) *ExportService {
	c := *s
	c.onProgress = fn
	return &c
}

// ExportOne exports one conversation of orgID and alerts the outcome.
func (s *ExportService) ExportOne(ctx context.Context, orgID, convID string, f export.Format) Outcome {
	if _, err := s.exportItem(ctx, orgID, convID, f); err != nil {
		s.logger.Error("export chat failed", "conversation", convID, "error", err)
		s.prompter.Alert(ctx, MsgChatExportError)
		return OutcomeFailed
	}
	s.prompter.Alert(ctx, ChatExportedMessage(f))
	return OutcomeOK
}

// ExportSingle resolves the organization for this action, then exports
// one conversation like ExportOne.
func (s *ExportService) ExportSingle(ctx context.Context, convID string, f export.Format) Outcome {
	orgID, err := s.api.OrganizationID(ctx)
	if err != nil {
		s.logger.Error("resolve organization failed", "error", err)
		s.prompter.Alert(ctx, MsgChatExportError)
		return OutcomeFailed
	}
	return s.ExportOne(ctx, orgID, convID, f)
}

// ExportAll exports every conversation sequentially in listing order.
// A failed item is skipped without notification; only the organization
// and listing stages can fail the batch. One alert is shown at the end.
func (s *ExportService) ExportAll(ctx context.Context, f export.Format) BatchResult {
	orgID, err := s.api.OrganizationID(ctx)
	if err != nil {
		s.logger.Error("resolve organization failed", "error", err)
		s.prompter.Alert(ctx, MsgAllExportError)
		return BatchResult{Outcome: OutcomeFailed}
	}

	convs, err := s.api.ListConversations(ctx, orgID)
	if err != nil {
		s.logger.Error("list conversations failed", "error", err)
		s.prompter.Alert(ctx, MsgAllExportError)
		return BatchResult{Outcome: OutcomeFailed}
	}

	res := BatchResult{Outcome: OutcomeOK, Total: len(convs)}
	s.logger.Info("exporting all conversations", "count", len(convs), "format", f.String())

	for i, summary := range convs {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("bulk export interrupted", "done", i, "total", len(convs), "error", err)
			res.Outcome = OutcomeFailed
			return res
		}

		filename, err := s.exportItem(ctx, orgID, summary.UUID, f)
		if err != nil {
			s.logger.Warn("skipping conversation", "conversation", summary.UUID, "error", err)
			res.Skipped = append(res.Skipped, summary.UUID)
		} else {
			res.Exported = append(res.Exported, summary.UUID)
			res.Files = append(res.Files, filename)
		}

		if s.onProgress != nil {
			s.onProgress(Progress{Done: i + 1, Total: len(convs), ConversationID: summary.UUID, Err: err})
		}
	}

	if len(res.Skipped) > 0 {
		s.logger.Warn("bulk export skipped conversations", "skipped", res.Skipped)
	}
	s.logger.Info("bulk export complete", "exported", len(res.Exported), "skipped", len(res.Skipped))
	s.prompter.Alert(ctx, AllExportedMessage(f))
	return res
}

// exportItem runs fetch, convert and save for one conversation and
// returns the saved file name. Nothing is saved if any step fails.
func (s *ExportService) exportItem(ctx context.Context, orgID, convID string, f export.Format) (string, error) {
	converter, err := export.ConverterFor(f)
	if err != nil {
		return "", err
	}

	record, err := s.api.GetConversation(ctx, orgID, convID)
	if err != nil {
		return "", fmt.Errorf("fetch conversation: %w", err)
	}

	content, err := converter.Convert(record)
	if err != nil {
		return "", fmt.Errorf("convert conversation: %w", err)
	}

	filename := export.Filename(record.Name, converter.FileExtension(), s.now())
	err = s.metrics.Time(metrics.OpSave, func() error {
		return s.saver.Save(ctx, content, filename, converter.MimeType())
	})
	if err != nil {
		return "", fmt.Errorf("save %s: %w", filename, err)
	}

	s.logger.Debug("conversation exported", "conversation", convID, "file", filename)
	return filename, nil
}
