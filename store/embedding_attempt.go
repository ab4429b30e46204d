package store

import (
	"context"
	"time"
)

// UploadContext identifies the ingestion path that produced an attempt.
type UploadContext string

const (
	UploadContextSingle UploadContext = "single"
	UploadContextBatch  UploadContext = "batch"
)

// AttemptStatus is the lifecycle state of an embedding attempt.
type AttemptStatus string

const (
	AttemptStatusPending    AttemptStatus = "pending"
	AttemptStatusProcessing AttemptStatus = "processing"
	AttemptStatusSuccess    AttemptStatus = "success"
	AttemptStatusFailed     AttemptStatus = "failed"
	AttemptStatusTimeout    AttemptStatus = "timeout"
)

// AttemptErrorType classifies a failed attempt so that upstream retry
// logic can make decisions without parsing free-text messages.
type AttemptErrorType string

const (
	AttemptErrorAPILimit   AttemptErrorType = "api_limit"
	AttemptErrorNetwork    AttemptErrorType = "network"
	AttemptErrorValidation AttemptErrorType = "validation"
	AttemptErrorTimeout    AttemptErrorType = "timeout"
	AttemptErrorUnknown    AttemptErrorType = "unknown"
)

// EmbeddingAttempt is one record per embedding-generation attempt.
// Created at attempt start with status pending, mutated once at completion.
type EmbeddingAttempt struct {
	ID        string
	ReceiptID string
	UserID    string
	TeamID    string

	UploadContext UploadContext
	Model         string
	StartTime     time.Time
	EndTime       time.Time // zero until completed
	DurationMs    int64
	Status        AttemptStatus
	RetryCount    int

	ErrorType    AttemptErrorType // empty when not failed
	ErrorMessage string

	ContentTypesProcessed  []string
	TotalContentTypes      int
	SuccessfulContentTypes int
	FailedContentTypes     int

	APICallsMade  int64
	APITokensUsed int64
	RateLimited   bool

	EmbeddingDimensions  int
	ContentLength        int
	SyntheticContentUsed bool

	CreatedTs int64
}

// FindEmbeddingAttempt is the find condition for embedding attempts.
type FindEmbeddingAttempt struct {
	ID           *string
	TeamID       *string
	Status       *AttemptStatus
	StartTimeGTE *time.Time
	StartTimeLT  *time.Time
	Limit        int
}

// CompleteEmbeddingAttempt specifies the completion update for an attempt.
// Duration is computed from the stored start time; the write is
// last-write-wins with no optimistic concurrency check.
type CompleteEmbeddingAttempt struct {
	ID      string
	EndTime time.Time
	Status  AttemptStatus

	ErrorType    *AttemptErrorType
	ErrorMessage *string

	SuccessfulContentTypes *int
	FailedContentTypes     *int

	APICallsMade  *int64
	APITokensUsed *int64
	RateLimited   *bool

	EmbeddingDimensions  *int
	ContentLength        *int
	SyntheticContentUsed *bool
}

// DeleteEmbeddingAttempts specifies the retention cutoff for attempts.
type DeleteEmbeddingAttempts struct {
	BeforeTime *time.Time // delete attempts started before this time
}

// CreateEmbeddingAttempt creates a pending embedding attempt.
func (s *Store) CreateEmbeddingAttempt(ctx context.Context, create *EmbeddingAttempt) (*EmbeddingAttempt, error) {
	return s.driver.CreateEmbeddingAttempt(ctx, create)
}

// CompleteEmbeddingAttempt applies the completion update to an attempt.
func (s *Store) CompleteEmbeddingAttempt(ctx context.Context, complete *CompleteEmbeddingAttempt) (*EmbeddingAttempt, error) {
	return s.driver.CompleteEmbeddingAttempt(ctx, complete)
}

// ListEmbeddingAttempts lists embedding attempts.
func (s *Store) ListEmbeddingAttempts(ctx context.Context, find *FindEmbeddingAttempt) ([]*EmbeddingAttempt, error) {
	return s.driver.ListEmbeddingAttempts(ctx, find)
}

// DeleteEmbeddingAttempts deletes attempts older than the cutoff.
func (s *Store) DeleteEmbeddingAttempts(ctx context.Context, delete *DeleteEmbeddingAttempts) error {
	return s.driver.DeleteEmbeddingAttempts(ctx, delete)
}
