// Package errors defines the application's error taxonomy.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeInternal          ErrorType = "internal"
	ErrorTypeExternal          ErrorType = "external"
	ErrorTypeFormatUnsupported ErrorType = "format_unsupported"
	ErrorTypeSourceMissing     ErrorType = "source_missing"
	ErrorTypeEmbeddingUnavail  ErrorType = "embedding_unavailable"
	ErrorTypeChatUnavailable   ErrorType = "chat_unavailable"
	ErrorTypeVectorStore       ErrorType = "vector_store_error"
	ErrorTypeWebSearch         ErrorType = "web_search_error"
	ErrorTypeFetch             ErrorType = "fetch_error"
	ErrorTypeRerankUnavailable ErrorType = "rerank_unavailable"
	ErrorTypeCacheUnavailable  ErrorType = "cache_unavailable"
	ErrorTypeEvalDataset       ErrorType = "eval_dataset_error"
)

// AppError represents an application error with additional context.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Context map[string]any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(errType ErrorType, message string) *AppError {
	return &AppError{Type: errType, Message: message, Context: make(map[string]any)}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, errType ErrorType, message string) *AppError {
	return &AppError{Type: errType, Message: message, Err: err, Context: make(map[string]any)}
}

// WithContext attaches a key/value pair to the error.
func (e *AppError) WithContext(key string, value any) *AppError {
	e.Context[key] = value
	return e
}

// Is reports whether err is an AppError of the given type.
func Is(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

func FormatUnsupported(message string) *AppError { return New(ErrorTypeFormatUnsupported, message) }
func SourceMissing(message string) *AppError     { return New(ErrorTypeSourceMissing, message) }
func EmbeddingUnavailable(err error) *AppError {
	return Wrap(err, ErrorTypeEmbeddingUnavail, "embedding backend unavailable")
}
func ChatUnavailable(err error) *AppError {
	return Wrap(err, ErrorTypeChatUnavailable, "chat backend unavailable")
}
func VectorStoreError(err error) *AppError {
	return Wrap(err, ErrorTypeVectorStore, "vector store operation failed")
}
func WebSearchError(err error) *AppError {
	return Wrap(err, ErrorTypeWebSearch, "web search failed")
}
func FetchError(err error) *AppError { return Wrap(err, ErrorTypeFetch, "fetch failed") }
func RerankUnavailable(err error) *AppError {
	return Wrap(err, ErrorTypeRerankUnavailable, "reranker unavailable")
}
func CacheUnavailable(err error) *AppError {
	return Wrap(err, ErrorTypeCacheUnavailable, "cache unavailable")
}
func EvalDatasetError(message string, err error) *AppError {
	return Wrap(err, ErrorTypeEvalDataset, message)
}

func InternalError(message string) *AppError { return New(ErrorTypeInternal, message) }
