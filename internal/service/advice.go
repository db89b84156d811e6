package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"cropadvisor/internal/model"
	"cropadvisor/internal/repository"
)

// ErrHistoryUnavailable is returned when no detection-log database is
// configured for this process.
var ErrHistoryUnavailable = errors.New("detection log is not configured")

// AdviceService generates remediation advice for crop-disease detections.
// The AI client is injected at construction; the repository is optional and
// may be nil when no database is configured.
type AdviceService struct {
	ai   AIClient
	repo *repository.PostgresRepository
}

// NewAdviceService creates a new advice service
func NewAdviceService(ai AIClient, repo *repository.PostgresRepository) *AdviceService {
	return &AdviceService{
		ai:   ai,
		repo: repo,
	}
}

// Generate produces advice for a single detection record. The input is
// assumed validated: crop and disease non-empty, confidence in [0,1].
// Upstream and parse failures propagate as explicit errors; no canned
// advice is ever substituted.
func (s *AdviceService) Generate(ctx context.Context, in model.DetectionInput) (*model.AdviceResult, error) {
	startTime := time.Now()

	prompt := BuildAdvicePrompt(in)

	reply, err := s.ai.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("advice generation failed: %w", err)
	}

	fields, err := ParseAdviceReply(reply)
	if err != nil {
		return nil, fmt.Errorf("advice reply unusable: %w", err)
	}

	result := &model.AdviceResult{
		AdviceFields: fields,
		Metadata: model.AdviceMetadata{
			Crop:        in.Crop,
			Disease:     in.Disease,
			Severity:    in.Severity,
			Confidence:  in.Confidence,
			GeneratedAt: time.Now().UTC(),
			Model:       s.ai.Model(),
		},
	}

	// Log the detection (non-blocking, best effort)
	if s.repo != nil {
		took := time.Since(startTime).Milliseconds()
		go s.logDetection(in, took)
	}

	return result, nil
}

// GenerateBatch produces advice for every detection concurrently, returning
// results in input order. The batch is all-or-nothing: the first failure
// reported by any item fails the whole batch and partial results are
// discarded.
func (s *AdviceService) GenerateBatch(ctx context.Context, inputs []model.DetectionInput) ([]*model.AdviceResult, error) {
	if len(inputs) == 0 {
		return nil, errors.New("empty batch")
	}

	results := make([]*model.AdviceResult, len(inputs))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr *BatchError

	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in model.DetectionInput) {
			defer wg.Done()

			result, err := s.Generate(ctx, in)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = &BatchError{Index: i, Err: err}
				}
				mu.Unlock()
				return
			}
			results[i] = result
		}(i, in)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return results, nil
}

// RecentDetections lists the latest detection-log entries
func (s *AdviceService) RecentDetections(ctx context.Context, limit int) ([]model.DetectionRecord, error) {
	if s.repo == nil {
		return nil, ErrHistoryUnavailable
	}
	return s.repo.RecentDetections(ctx, limit)
}

// SimilarDetections finds past detections semantically close to the given
// crop/disease pair using embedding similarity
func (s *AdviceService) SimilarDetections(ctx context.Context, crop, disease string, limit int) ([]model.DetectionRecord, error) {
	if s.repo == nil {
		return nil, ErrHistoryUnavailable
	}

	embeddings, err := s.ai.CreateEmbeddings(ctx, []string{crop + " " + disease})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, errors.New("provider returned no embedding")
	}

	return s.repo.SimilarDetections(ctx, embeddings[0], limit)
}

// logDetection records the detection and, when the provider supports it,
// an embedding of its summary. Advice text is never stored.
func (s *AdviceService) logDetection(in model.DetectionInput, tookMs int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rec := &model.DetectionRecord{
		Crop:           in.Crop,
		Disease:        in.Disease,
		Severity:       in.Severity,
		Confidence:     in.Confidence,
		Model:          s.ai.Model(),
		ResponseTimeMs: tookMs,
	}

	var embedding []float32
	if embeddings, err := s.ai.CreateEmbeddings(ctx, []string{rec.Summary()}); err == nil && len(embeddings) > 0 {
		embedding = embeddings[0]
	}

	if err := s.repo.InsertDetection(ctx, rec, embedding); err != nil {
		log.Printf("Warning: failed to log detection: %v", err)
	}
}
