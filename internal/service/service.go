// Package service wires the document pipeline together: load, chunk, index,
// retrieve, answer, audit.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kotae-dev/kotae/internal/answer"
	"github.com/kotae-dev/kotae/internal/audit"
	"github.com/kotae-dev/kotae/internal/chunker"
	"github.com/kotae-dev/kotae/internal/config"
	"github.com/kotae-dev/kotae/internal/loader"
	"github.com/kotae-dev/kotae/internal/models"
	"github.com/kotae-dev/kotae/internal/retriever"
	"github.com/kotae-dev/kotae/internal/vectorstore"
)

// noResultsAnswer is returned without consulting the language model when
// retrieval comes back empty.
const noResultsAnswer = "I couldn't find any relevant information in the knowledge base. Please upload documents first, or try rephrasing your question."

// UploadFile is one file submitted for ingestion.
type UploadFile struct {
	Name string
	Data []byte
}

// FileFailure records why a single file was skipped during ingestion.
type FileFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Documents int           `json:"documents"`
	Chunks    int           `json:"chunks"`
	Failures  []FileFailure `json:"failures,omitempty"`
}

// Identity names who asked a question, for the audit trail.
type Identity struct {
	Actor      string
	Department string
}

// Service coordinates the full question-answering pipeline. Ingestion and
// collection clearing are serialized with a mutex because both replace the
// collection wholesale; queries run concurrently against whichever
// generation is current.
type Service struct {
	loader    *loader.Loader
	splitter  *chunker.Splitter
	store     vectorstore.Store
	retriever *retriever.Retriever
	composer  *answer.Composer
	audit     *audit.Sink
	cfg       *config.Config
	logger    *zap.Logger

	ingestMu sync.Mutex
}

// New creates a service. sink may be nil for contexts that have no audit
// trail (one-shot CLI commands); Ask then skips recording.
func New(
	l *loader.Loader,
	splitter *chunker.Splitter,
	store vectorstore.Store,
	r *retriever.Retriever,
	composer *answer.Composer,
	sink *audit.Sink,
	cfg *config.Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		loader:    l,
		splitter:  splitter,
		store:     store,
		retriever: r,
		composer:  composer,
		audit:     sink,
		cfg:       cfg,
		logger:    logger,
	}
}

// IngestFiles loads, chunks, and indexes the given files, replacing the
// entire collection. A file that fails to load is reported in the result and
// skipped; the rest of the batch proceeds. The run fails only when no file
// yields any chunk, leaving the existing collection untouched.
func (s *Service) IngestFiles(ctx context.Context, files []UploadFile) (*IngestReport, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	report := &IngestReport{}
	var chunks []models.Chunk
	for _, f := range files {
		docs, err := s.loader.Load(f.Data, f.Name)
		if err != nil {
			s.logger.Warn("failed to load file", zap.String("file", f.Name), zap.Error(err))
			report.Failures = append(report.Failures, FileFailure{Name: f.Name, Reason: err.Error()})
			continue
		}
		for _, doc := range docs {
			chunks = append(chunks, s.splitter.Split(doc)...)
		}
		report.Documents += len(docs)
	}
	if len(chunks) == 0 {
		return report, fmt.Errorf("no documents could be processed")
	}

	if err := s.store.Ingest(ctx, chunks); err != nil {
		return report, fmt.Errorf("index store ingest: %w", err)
	}
	report.Chunks = len(chunks)
	s.logger.Info("ingested documents",
		zap.Int("documents", report.Documents),
		zap.Int("chunks", report.Chunks),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

// Ask answers a question from the indexed documents. Empty retrieval
// short-circuits to a canned answer without calling the language model. When
// who is non-nil the interaction is recorded in the audit trail; an audit
// write failure is logged but does not fail the request.
func (s *Service) Ask(ctx context.Context, req models.AskRequest, who *Identity) (*models.AskResponse, error) {
	if err := req.Validate(s.cfg.Query.DefaultResultCount, s.cfg.Query.AllowedResultCounts); err != nil {
		return nil, err
	}

	start := time.Now()
	passages, err := s.retriever.Retrieve(ctx, req.Question, req.K)
	if err != nil {
		return nil, err
	}

	var text string
	var sources []string
	if len(passages) == 0 {
		text, sources = noResultsAnswer, []string{}
	} else {
		text, sources = s.composer.Answer(ctx, req.Question, passages)
	}

	resp := &models.AskResponse{
		Question:  req.Question,
		Answer:    text,
		Sources:   sources,
		Passages:  passages,
		QueryTime: time.Since(start).Milliseconds(),
	}

	if s.audit != nil && who != nil {
		_, aerr := s.audit.Record(ctx, audit.Entry{
			Actor:      who.Actor,
			Department: who.Department,
			Query:      req.Question,
			Response:   text,
			Sources:    sources,
		})
		if aerr != nil {
			s.logger.Error("failed to record audit entry", zap.Error(aerr))
		}
	}
	return resp, nil
}

// Stats reports the current collection statistics.
func (s *Service) Stats(ctx context.Context) (vectorstore.Stats, error) {
	return s.store.Stats(ctx)
}

// ClearCollection deletes the indexed collection.
func (s *Service) ClearCollection(ctx context.Context) error {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("index store clear: %w", err)
	}
	s.logger.Info("collection cleared")
	return nil
}
