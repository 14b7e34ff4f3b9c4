// Package service implements the summarization pass over synced documents
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"lifesync/internal/adapters/llm"
	"lifesync/internal/core/runstate"
	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/logger"
	"lifesync/internal/platform/notify"
	"lifesync/internal/services/summarize/domain"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const summarySuffix = "-summary.md"

// DefaultPrompt is the system prompt used when none is configured
const DefaultPrompt = `You summarize a day of personal lifelog transcripts.
Write concise markdown with these sections: Overview, Key events, People, Decisions and follow-ups.
Only use facts present in the document. Keep times in HH:MM form when they matter.`

// Config holds the pass options
type Config struct {
	// Enabled gates automatic passes; manual passes always run
	Enabled    bool
	SummaryDir string
	Prompt     string
}

// Service runs summarization passes. One pass is active at a time and
// documents are processed sequentially
type Service struct {
	LLM     domain.LLM
	Docs    domain.Documents
	Tracker *Tracker
	Notify  notify.Notifier
	Cfg     Config

	run runstate.State
	now func() time.Time
}

// New constructs the summarization service
func New(client domain.LLM, docs domain.Documents, tr *Tracker, n notify.Notifier, cfg Config) *Service {
	if client == nil || docs == nil || tr == nil {
		panic("summarize.Service requires llm, documents and tracker")
	}
	if n == nil {
		n = notify.Nop
	}
	if strings.TrimSpace(cfg.Prompt) == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.SummaryDir == "" {
		cfg.SummaryDir = tr.SummaryDir
	}
	return &Service{LLM: client, Docs: docs, Tracker: tr, Notify: n, Cfg: cfg, now: time.Now}
}

var _ domain.Runner = (*Service)(nil)

// SummarizeAll summarizes every changed document, or every eligible one with
// forceAll. A second call while a pass is active is skipped with a nil error
func (s *Service) SummarizeAll(ctx context.Context, forceAll bool) (domain.Outcome, error) {
	mode := "changed"
	if forceAll {
		mode = "force"
	}
	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(logger.WithRun(ctx, runID, "summarize"))
	defer cancel()

	if !s.run.Begin(runID, mode, cancel, s.now()) {
		s.notice(ctx, notify.LevelInfo, "Summarization already running")
		return domain.Outcome{Skipped: true, Phase: s.run.Snapshot().Phase, Message: "summarization already running"}, nil
	}
	log := logger.C(runCtx)

	docs, err := s.prepare(runCtx, forceAll)
	if err != nil {
		out := s.run.Finish(domain.Outcome{Phase: runstate.Failed, Message: "Summarization failed: " + err.Error(), FinishedAt: s.now()})
		s.notice(ctx, notify.LevelError, out.Message)
		log.Error().Stack().Err(err).Msg("summarization setup failed")
		return out, err
	}
	log.Info().Str("mode", mode).Int("documents", len(docs)).Msg("summarization started")

	s.run.Run(len(docs), fmt.Sprintf("Summarizing 0/%d documents", len(docs)))
	out := domain.Outcome{Units: len(docs)}
	for _, path := range docs {
		if s.run.Checkpoint(runCtx) != nil {
			break
		}
		err := s.summarizeOne(runCtx, path)
		if err != nil && s.run.CancelRequested() {
			break
		}
		if err != nil {
			out.Failed++
			log.Error().Err(err).Str("doc", path).Msg("summary failed")
		} else {
			out.Items++
		}
		out.Done++
		done := s.run.Step()
		s.run.SetStatus(fmt.Sprintf("Summarizing %d/%d documents (%d%%)", done, len(docs), runstate.Percent(done, len(docs))))
	}

	out.FinishedAt = s.now()
	if s.run.CancelRequested() || ctx.Err() != nil {
		out.Phase = runstate.Cancelled
		out.Message = fmt.Sprintf("Summarization cancelled: %d of %d documents summarized", out.Items, out.Units)
	} else {
		out.Phase = runstate.Completed
		out.Message = fmt.Sprintf("Summarization complete: %d of %d documents summarized", out.Items, out.Units)
		if out.Failed > 0 {
			out.Message += fmt.Sprintf(" (%d failed)", out.Failed)
		}
	}
	out = s.run.Finish(out)

	level := notify.LevelInfo
	if out.Failed > 0 {
		level = notify.LevelWarn
	}
	s.notice(ctx, level, out.Message)
	log.Info().Str("phase", string(out.Phase)).Int("summarized", out.Items).Int("failed", out.Failed).Msg("summarization finished")
	return out, nil
}

func (s *Service) prepare(ctx context.Context, forceAll bool) ([]string, error) {
	if !s.LLM.HasKey() {
		return nil, perr.InvalidArgf("LLM API key is not configured, set SERVICE_LLM_KEY")
	}
	if err := s.Docs.EnsureDir(ctx, s.Cfg.SummaryDir); err != nil {
		return nil, err
	}
	return s.Tracker.ChangedDocuments(ctx, forceAll)
}

// summarizeOne reads, summarizes and writes the companion, then records the
// hash of the content that was summarized
func (s *Service) summarizeOne(ctx context.Context, path string) error {
	content, ok, err := s.Docs.Read(ctx, path)
	if err != nil {
		return err
	}
	if !ok {
		return perr.NotFoundf("document %s disappeared", path)
	}
	reply, err := s.LLM.Chat(ctx, s.Cfg.Prompt, content)
	if err != nil {
		return err
	}
	doc, err := s.companion(path, reply)
	if err != nil {
		return err
	}
	if err := s.Docs.Write(ctx, s.CompanionPath(path), doc); err != nil {
		return err
	}
	return s.Tracker.RecordHash(ctx, path, content)
}

type summaryMeta struct {
	Source      string `yaml:"source"`
	GeneratedAt string `yaml:"generated_at"`
	Model       string `yaml:"model"`
}

func (s *Service) companion(path, reply string) (string, error) {
	var fm bytes.Buffer
	err := writeFrontmatter(&fm, summaryMeta{
		Source:      filepath.Base(path),
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
		Model:       s.LLM.Model(),
	})
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "encode summary frontmatter")
	}
	return "---\n" + fm.String() + "---\n\n" + strings.TrimSpace(reply) + "\n", nil
}

func writeFrontmatter(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// CompanionPath is {SummaryDir}/{stem}-summary.md
func (s *Service) CompanionPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(s.Cfg.SummaryDir, stem+summarySuffix)
}

// Launch runs a pass in the background. It reports false when one is active
func (s *Service) Launch(ctx context.Context, req domain.Request) (bool, error) {
	if s.Active() {
		return false, nil
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		if _, err := s.SummarizeAll(bg, req.Force); err != nil {
			logger.C(bg).Warn().Err(err).Msg("background summarization failed")
		}
	}()
	return true, nil
}

// Cancel stops the active pass before its next document and aborts the
// in-flight LLM call. It returns false when nothing is running
func (s *Service) Cancel() bool {
	if !s.run.RequestCancel() {
		return false
	}
	n := s.LLM.CancelAll()
	logger.Named("summarize").Info().Int("requests", n).Msg("summarization cancel requested")
	return true
}

// Snapshot returns the observable pass state
func (s *Service) Snapshot() domain.Snapshot { return s.run.Snapshot() }

// Active reports whether a pass is in progress
func (s *Service) Active() bool { return s.run.Snapshot().Active }

// Enabled reports whether automatic passes are configured
func (s *Service) Enabled() bool { return s.Cfg.Enabled }

// ValidateCredential checks the LLM key and returns the chat models it can use
func (s *Service) ValidateCredential(ctx context.Context) domain.CredentialCheck {
	chk := s.checkCredential(ctx)
	level, msg := notify.LevelInfo, fmt.Sprintf("LLM credential valid, %d chat models available", len(chk.Models))
	switch chk.Status {
	case domain.CredentialMissing:
		level, msg = notify.LevelError, "LLM API key is not configured"
	case domain.CredentialInvalid:
		level, msg = notify.LevelError, "LLM API key was rejected, check SERVICE_LLM_KEY"
	case domain.CredentialUnreachable:
		level, msg = notify.LevelWarn, "LLM API unreachable: "+chk.Detail
	}
	s.Notify.Notify(ctx, notify.Notice{Kind: notify.KindCheck, Level: level, Message: msg})
	return chk
}

func (s *Service) checkCredential(ctx context.Context) domain.CredentialCheck {
	if !s.LLM.HasKey() {
		return domain.CredentialCheck{Status: domain.CredentialMissing, Models: []string{}}
	}
	ids, err := s.LLM.ListModels(ctx)
	switch {
	case err == nil:
		return domain.CredentialCheck{Status: domain.CredentialValid, Models: llm.FilterChatModels(ids)}
	case perr.IsCode(err, perr.ErrorCodeUnauthorized):
		return domain.CredentialCheck{Status: domain.CredentialInvalid, Models: []string{}, Detail: err.Error()}
	default:
		return domain.CredentialCheck{Status: domain.CredentialUnreachable, Models: []string{}, Detail: err.Error()}
	}
}

// Models lists the chat models visible to the key. A rejected or missing key
// yields an empty list, a nil error and an invalid credential notice
func (s *Service) Models(ctx context.Context) ([]string, error) {
	chk := s.checkCredential(ctx)
	switch chk.Status {
	case domain.CredentialValid:
		return chk.Models, nil
	case domain.CredentialUnreachable:
		return nil, perr.Unavailablef("list models: %s", chk.Detail)
	default:
		s.Notify.Notify(ctx, notify.Notice{Kind: notify.KindCheck, Level: notify.LevelError, Message: "LLM credential is invalid, no models available"})
		return []string{}, nil
	}
}

func (s *Service) notice(ctx context.Context, level notify.Level, msg string) {
	s.Notify.Notify(ctx, notify.Notice{Kind: notify.KindSummary, Level: level, Message: msg})
}
