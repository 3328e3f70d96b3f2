package gofeed

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  NewError(CodeForbidden, "nope", nil),
			want: "FORBIDDEN: nope",
		},
		{
			name: "with cause",
			err:  NewError(CodeInternal, "An error occurred.", errors.New("disk full")),
			want: "INTERNAL: An error occurred.: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	cause := errors.New("cause")
	err := fmt.Errorf("wrapped: %w", NewError(CodeNotFound, "Post not found.", cause))

	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is should match the code's sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should match the cause")
	}
	if errors.Is(err, ErrForbidden) {
		t.Error("errors.Is should not match another code")
	}
}

func TestCode_Status(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeAuthenticationRequired, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeValidationFailed, http.StatusUnprocessableEntity},
		{CodeConflict, http.StatusConflict},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("UNKNOWN"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.code.Status(); got != tt.want {
			t.Errorf("%s.Status() = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}

	e := NewError(CodeConflict, "dup", nil)
	if got := Classify(fmt.Errorf("ctx: %w", e)); got != e {
		t.Errorf("Classify() = %v, want the wrapped *Error", got)
	}

	raw := errors.New("connection reset")
	got := Classify(raw)
	if got.Code != CodeInternal || got.Message != "An error occurred." {
		t.Errorf("Classify(raw) = %+v", got)
	}
	if !errors.Is(got, raw) {
		t.Error("classified error should keep its cause")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(nil) != "" {
		t.Error("CodeOf(nil) should be empty")
	}
	if CodeOf(notAuthenticated()) != CodeAuthenticationRequired {
		t.Error("CodeOf(notAuthenticated()) should be AUTHENTICATION_REQUIRED")
	}
	if CodeOf(errors.New("x")) != CodeInternal {
		t.Error("CodeOf(plain error) should be INTERNAL")
	}
}
