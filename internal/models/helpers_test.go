package models

import "testing"

func TestKindFromFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want FileKind
	}{
		{"csv", "people.csv", FileKindCSV},
		{"uppercase extension", "REPORT.XLSX", FileKindXLSX},
		{"text", "notes.txt", FileKindTXT},
		{"nested path", "/tmp/in/contract.docx", FileKindDOCX},
		{"no extension", "README", FileKindNone},
		{"unknown extension", "archive.zip", FileKindNone},
		{"empty", "", FileKindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KindFromFilename(tt.in)
			if got != tt.want {
				t.Errorf("KindFromFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFileKindPredicates(t *testing.T) {
	tests := []struct {
		kind         FileKind
		tabular      bool
		requiresFile bool
	}{
		{FileKindNone, false, false},
		{FileKindTXT, false, false},
		{FileKindCSV, true, true},
		{FileKindXLSX, true, true},
		{FileKindDOCX, false, true},
		{FileKindPDF, false, true},
		{FileKindJSON, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Tabular(); got != tt.tabular {
				t.Errorf("%q.Tabular() = %v, want %v", tt.kind, got, tt.tabular)
			}
			if got := tt.kind.RequiresFile(); got != tt.requiresFile {
				t.Errorf("%q.RequiresFile() = %v, want %v", tt.kind, got, tt.requiresFile)
			}
		})
	}
}

func TestJobStatusTerminal(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusPending, false},
		{JobStatusFinished, true},
		{JobStatusError, true},
		{"running", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("JobStatus(%q).Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestJobResultCounts(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantLines int
		wantChars int
	}{
		{"empty", "", 0, 0},
		{"single line", "hello", 1, 5},
		{"two lines", "a\nb", 2, 3},
		{"trailing newline", "a\n", 2, 2},
		{"multibyte", "café", 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := JobResult{Text: tt.text}
			if got := r.LineCount(); got != tt.wantLines {
				t.Errorf("LineCount() = %d, want %d", got, tt.wantLines)
			}
			if got := r.CharCount(); got != tt.wantChars {
				t.Errorf("CharCount() = %d, want %d", got, tt.wantChars)
			}
		})
	}
}

func TestOptionKey(t *testing.T) {
	if got := OptionKey("Emails"); got != OptionEmails {
		t.Errorf("OptionKey(Emails) = %q, want %q", got, OptionEmails)
	}
	if got := OptionKey("anonymizeCustom"); got != "anonymizeCustom" {
		t.Errorf("OptionKey should pass unknown names through, got %q", got)
	}
}

func TestDefaultOptions(t *testing.T) {
	tests := []struct {
		hasRules bool
		wantMisc bool
	}{
		{false, true},
		{true, false},
	}

	for _, tt := range tests {
		opts := DefaultOptions(tt.hasRules)
		if len(opts) != 9 {
			t.Errorf("DefaultOptions(%v) has %d entries, want 9", tt.hasRules, len(opts))
		}
		if opts[OptionMisc] != tt.wantMisc {
			t.Errorf("DefaultOptions(%v)[misc] = %v, want %v", tt.hasRules, opts[OptionMisc], tt.wantMisc)
		}
		if !opts[OptionPersons] {
			t.Errorf("DefaultOptions(%v)[persons] = false, want true", tt.hasRules)
		}
	}
}

func TestEffectiveOptions(t *testing.T) {
	opts := EffectiveOptions(map[string]bool{OptionEmails: false, OptionMisc: true}, true)
	if opts[OptionEmails] {
		t.Errorf("override for emails not applied")
	}
	if !opts[OptionMisc] {
		t.Errorf("explicit misc override should win over the rules default")
	}
	if !opts[OptionDates] {
		t.Errorf("unnamed keys should keep the service default")
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("ShortID() = %q", got)
	}
	if got := ShortID("j1"); got != "j1" {
		t.Errorf("ShortID() = %q", got)
	}
}
