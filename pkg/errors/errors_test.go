package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeIdempotency, http.StatusConflict},
		{CodeRemoteAPI, http.StatusBadGateway},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		if got := MetadataFor(tt.code).HTTPStatus; got != tt.status {
			t.Fatalf("code %s: expected status %d, got %d", tt.code, tt.status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "db: insert product")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	if err.Error() != "DEPENDENCY_ERROR: db: insert product" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestAsThroughWrapping(t *testing.T) {
	inner := New(CodeRemoteAPI, "remote rejected").WithDetails(map[string]any{"field": "title"})
	outer := fmt.Errorf("create product: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error through fmt wrapping")
	}
	if typed.Code() != CodeRemoteAPI {
		t.Fatalf("expected REMOTE_API_ERROR, got %s", typed.Code())
	}
	if typed.Details() == nil {
		t.Fatal("expected details to be preserved")
	}
}

func TestDumpBuildsChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection refused"), "shopify request")
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected code in dump, got %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}
}
