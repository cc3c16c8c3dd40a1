package storage

import (
	"context"
	"errors"
	"time"
)

// StubAttachmentStorage is a placeholder AttachmentStorage for development
// and tests. Every object is reported as existing so attachment validation
// never blocks the workflow, and presigned URLs point at a fake host.
type StubAttachmentStorage struct {
	// BaseURL is the base URL for generated upload/download URLs
	BaseURL string
}

// NewStubAttachmentStorage creates a new StubAttachmentStorage
func NewStubAttachmentStorage() *StubAttachmentStorage {
	return &StubAttachmentStorage{
		BaseURL: "https://storage.example.com",
	}
}

var _ AttachmentStorage = (*StubAttachmentStorage)(nil)

// Exists always returns true so document submission succeeds in stub mode
func (s *StubAttachmentStorage) Exists(ctx context.Context, objectKey string) (bool, error) {
	if objectKey == "" {
		return false, errors.New("object key is required")
	}
	return true, nil
}

// PresignUploadURL generates a fake upload URL
func (s *StubAttachmentStorage) PresignUploadURL(
	ctx context.Context,
	objectKey, contentType string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if objectKey == "" {
		return "", time.Time{}, errors.New("object key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/upload/" + objectKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// PresignDownloadURL generates a fake download URL
func (s *StubAttachmentStorage) PresignDownloadURL(
	ctx context.Context,
	objectKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if objectKey == "" {
		return "", time.Time{}, errors.New("object key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + objectKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// Delete is a no-op that always succeeds
func (s *StubAttachmentStorage) Delete(ctx context.Context, objectKey string) error {
	if objectKey == "" {
		return errors.New("object key is required")
	}
	return nil
}
