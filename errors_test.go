package sift

import "testing"

func TestErrConfigError(t *testing.T) {
	tests := []struct {
		option string
		reason string
		want   string
	}{
		{"chunk_size", "must be positive, got 0", "config chunk_size: must be positive, got 0"},
		{"diversity", "must be in [0, 1], got 1.5", "config diversity: must be in [0, 1], got 1.5"},
	}
	for _, tt := range tests {
		e := &ErrConfig{Option: tt.option, Reason: tt.reason}
		if got := e.Error(); got != tt.want {
			t.Errorf("ErrConfig{%q, %q}.Error() = %q, want %q", tt.option, tt.reason, got, tt.want)
		}
	}
}

func TestErrInputError(t *testing.T) {
	tests := []struct {
		field  string
		reason string
		want   string
	}{
		{"query", "must not be empty", "input query: must not be empty"},
		{"content", "result 3 has no content", "input content: result 3 has no content"},
	}
	for _, tt := range tests {
		e := &ErrInput{Field: tt.field, Reason: tt.reason}
		if got := e.Error(); got != tt.want {
			t.Errorf("ErrInput{%q, %q}.Error() = %q, want %q", tt.field, tt.reason, got, tt.want)
		}
	}
}

func TestErrorsImplementError(t *testing.T) {
	var _ error = (*ErrConfig)(nil)
	var _ error = (*ErrInput)(nil)
}
