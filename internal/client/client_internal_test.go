package client

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestDecodeSubmissionShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		deferred bool
		text     string
	}{
		{"job id", `{"job_id":"j1","status":"pending"}`, true, ""},
		{"empty job id is immediate", `{"job_id":"","anonymized_text":"X"}`, false, "X"},
		{"empty body", ``, false, ""},
		{"array body", `[1,2]`, false, ""},
	}

	for _, tt := range tests {
		sub := decodeSubmission("anonymize", []byte(tt.body))
		if sub.Deferred() != tt.deferred {
			t.Errorf("%s: Deferred() = %v, want %v", tt.name, sub.Deferred(), tt.deferred)
		}
		if !tt.deferred && (sub.Result == nil || sub.Result.Text != tt.text) {
			t.Errorf("%s: unexpected result %+v", tt.name, sub.Result)
		}
	}
}
