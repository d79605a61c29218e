package models

import (
	"io"
	"strings"
)

// FileKind is the declared type of the staged input.
type FileKind string

const (
	FileKindNone FileKind = ""
	FileKindTXT  FileKind = "txt"
	FileKindCSV  FileKind = "csv"
	FileKindXLSX FileKind = "xlsx"
	FileKindDOCX FileKind = "docx"
	FileKindPDF  FileKind = "pdf"
	FileKindJSON FileKind = "json"
)

// ParseFileKind normalises a user-supplied kind or file extension ("CSV", ".csv").
func ParseFileKind(s string) FileKind {
	return FileKind(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
}

// Tabular reports whether the kind carries rows and an optional header.
func (k FileKind) Tabular() bool {
	return k == FileKindCSV || k == FileKindXLSX
}

// RequiresFile reports whether inline text is not an acceptable source for this kind.
func (k FileKind) RequiresFile() bool {
	return k != FileKindNone && k != FileKindTXT
}

// StagedFile is a file prepared for upload.
type StagedFile struct {
	Name   string
	Reader io.Reader
}

// CustomRule is a user-defined pattern/replacement pair applied before entity detection.
type CustomRule struct {
	Pattern     string `json:"pattern" yaml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement"`
	IsRegex     bool   `json:"isRegex,omitempty" yaml:"is_regex,omitempty"`
}

// Option names understood by the anonymization backend.
const (
	OptionPersons   = "anonymizePersons"
	OptionLocations = "anonymizeLocations"
	OptionOrgs      = "anonymizeOrgs"
	OptionEmails    = "anonymizeEmails"
	OptionDates     = "anonymizeDates"
	OptionPhones    = "anonymizePhones"
	OptionIbans     = "anonymizeIbans"
	OptionAddresses = "anonymizeAddresses"
	OptionMisc      = "anonymizeMisc"
)

// optionAliases maps short CLI names to backend option keys.
var optionAliases = map[string]string{
	"persons":   OptionPersons,
	"locations": OptionLocations,
	"orgs":      OptionOrgs,
	"emails":    OptionEmails,
	"dates":     OptionDates,
	"phones":    OptionPhones,
	"ibans":     OptionIbans,
	"addresses": OptionAddresses,
	"misc":      OptionMisc,
}

// DefaultOptions returns the detection set the service applies to keys a
// submission leaves out. MISC is off once custom rules are present.
func DefaultOptions(hasRules bool) map[string]bool {
	opts := make(map[string]bool, len(optionAliases))
	for _, key := range optionAliases {
		opts[key] = true
	}
	opts[OptionMisc] = !hasRules
	return opts
}

// EffectiveOptions layers explicit overrides on top of the service defaults.
func EffectiveOptions(overrides map[string]bool, hasRules bool) map[string]bool {
	opts := DefaultOptions(hasRules)
	for k, v := range overrides {
		opts[k] = v
	}
	return opts
}

// OptionKey resolves a short alias ("emails") to its backend key.
// Unknown names are returned unchanged so the option set stays open-ended.
func OptionKey(name string) string {
	if key, ok := optionAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return key
	}
	return name
}

// SubmissionRequest is the staged input for an anonymization job.
// Exactly one of Text and File must be set.
type SubmissionRequest struct {
	Text      *string
	File      *StagedFile
	Kind      FileKind
	HasHeader bool
	Options   map[string]bool
	Rules     []CustomRule
}

// DeanonymizeRequest is the staged input for a de-anonymization job.
type DeanonymizeRequest struct {
	File       *StagedFile
	Mapping    *StagedFile
	Permissive bool
}
