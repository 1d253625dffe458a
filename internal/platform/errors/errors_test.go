package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	base := New(CodeNotFound, "package missing")
	other := New(CodeNotFound, "entity missing")

	if !errors.Is(base, other) {
		t.Fatal("expected errors with the same code to match")
	}
	if errors.Is(base, New(CodeConflict, "busy")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(CodeStorage, "persist package", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable")
	}
	if err.Error() != "persist package" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"domain error", New(CodeConflict, "busy"), CodeConflict},
		{"wrapped domain error", fmt.Errorf("outer: %w", New(CodeNotFound, "missing")), CodeNotFound},
		{"plain error", fmt.Errorf("plain"), CodeUnknown},
		{"nil", nil, CodeUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeOf(tc.err); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusUnprocessableEntity},
		{CodePackageMalformed, http.StatusUnprocessableEntity},
		{CodeConflict, http.StatusConflict},
		{CodeImportInFlight, http.StatusConflict},
		{CodeNotFound, http.StatusNotFound},
		{CodeStorage, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("code %s: expected %d, got %d", tc.code, tc.want, got)
		}
	}
}

func TestRetryable(t *testing.T) {
	if CodeValidation.Retryable() {
		t.Fatal("validation failures must not be retryable")
	}
	if !CodeStorage.Retryable() {
		t.Fatal("storage failures should be retryable")
	}
	if !CodeImportInFlight.Retryable() {
		t.Fatal("import conflicts should clear on retry")
	}
}
