package errors

import (
	"errors"
	"testing"
)

func TestNewAndError(t *testing.T) {
	err := New(ErrorTypeFormatUnsupported, "bad input")
	if err.Error() != "format_unsupported: bad input" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := Wrap(inner, ErrorTypeVectorStore, "upsert failed")
	if !errors.Is(err, inner) {
		t.Errorf("expected Unwrap to expose inner error")
	}
	want := "vector_store_error: upsert failed: boom"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"matching type", New(ErrorTypeSourceMissing, "x"), ErrorTypeSourceMissing, true},
		{"mismatched type", New(ErrorTypeSourceMissing, "x"), ErrorTypeFetch, false},
		{"non-AppError", errors.New("plain"), ErrorTypeFetch, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.typ); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithContext(t *testing.T) {
	err := New(ErrorTypeInternal, "x").WithContext("path", "/a/b")
	if err.Context["path"] != "/a/b" {
		t.Errorf("context not set")
	}
}
