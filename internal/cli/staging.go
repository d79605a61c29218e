package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/anonyfiles-go/internal/models"
	"gopkg.in/yaml.v3"
)

// stagedInput holds the flags that make up an anonymization request.
type stagedInput struct {
	File        string
	Text        string
	TextSet     bool
	Kind        string
	HasHeader   bool
	OptionsFile string
	Disable     []string
	RulesFile   string
}

// stageSubmission builds a SubmissionRequest from the command flags.
// A file argument of "-" reads inline text from stdin.
func stageSubmission(in stagedInput, stdin io.Reader) (models.SubmissionRequest, error) {
	var req models.SubmissionRequest

	switch {
	case in.File != "" && in.TextSet:
		return req, errors.New("use either a file argument or --text, not both")
	case in.File == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return req, fmt.Errorf("read stdin: %w", err)
		}
		text := string(data)
		req.Text = &text
	case in.File != "":
		data, err := os.ReadFile(in.File)
		if err != nil {
			return req, fmt.Errorf("read input file: %w", err)
		}
		req.File = &models.StagedFile{Name: filepath.Base(in.File), Reader: bytes.NewReader(data)}
	case in.TextSet:
		text := in.Text
		req.Text = &text
	}

	req.Kind = models.ParseFileKind(in.Kind)
	if req.Kind == models.FileKindNone && req.File != nil {
		req.Kind = models.KindFromFilename(req.File.Name)
	}
	if req.Kind.Tabular() {
		req.HasHeader = in.HasHeader
	}

	options, err := loadOptions(in.OptionsFile, in.Disable)
	if err != nil {
		return req, err
	}
	req.Options = options

	rules, err := loadRules(in.RulesFile)
	if err != nil {
		return req, err
	}
	req.Rules = rules

	return req, nil
}

// loadOptions reads an option preset and applies --disable on top of it.
// Only keys named by either are returned; both empty yields nil and the
// service applies its defaults.
//
// Preset format:
//
//	persons: true
//	emails: false
//	anonymizeDates: false
func loadOptions(path string, disable []string) (map[string]bool, error) {
	if path == "" && len(disable) == 0 {
		return nil, nil
	}

	options := make(map[string]bool)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read options file: %w", err)
		}
		var preset map[string]bool
		if err := yaml.Unmarshal(data, &preset); err != nil {
			return nil, fmt.Errorf("parse options file %s: %w", path, err)
		}
		for name, enabled := range preset {
			options[models.OptionKey(name)] = enabled
		}
	}

	for _, name := range disable {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		options[models.OptionKey(name)] = false
	}
	return options, nil
}

// rulesFile accepts either a bare list or a document with a "rules" key.
type rulesFile struct {
	Rules []models.CustomRule `yaml:"rules"`
}

// loadRules reads custom replacement rules from a YAML file.
//
//	rules:
//	  - pattern: ACME Corp
//	    replacement: ORG_X
//	  - pattern: "\\d{3}-\\d{4}"
//	    replacement: PHONE
//	    is_regex: true
func loadRules(path string) ([]models.CustomRule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var rules []models.CustomRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		var doc rulesFile
		if derr := yaml.Unmarshal(data, &doc); derr != nil {
			return nil, fmt.Errorf("parse rules file %s: %w", path, derr)
		}
		rules = doc.Rules
	}

	for i, r := range rules {
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, fmt.Errorf("rule %d in %s: pattern is required", i+1, path)
		}
	}
	return rules, nil
}

// stageDeanonymize opens the file to restore and its mapping.
func stageDeanonymize(file, mapping string, permissive bool) (models.DeanonymizeRequest, error) {
	var req models.DeanonymizeRequest

	data, err := os.ReadFile(file)
	if err != nil {
		return req, fmt.Errorf("read input file: %w", err)
	}
	req.File = &models.StagedFile{Name: filepath.Base(file), Reader: bytes.NewReader(data)}

	if mapping != "" {
		m, err := os.ReadFile(mapping)
		if err != nil {
			return req, fmt.Errorf("read mapping file: %w", err)
		}
		req.Mapping = &models.StagedFile{Name: filepath.Base(mapping), Reader: bytes.NewReader(m)}
	}
	req.Permissive = permissive
	return req, nil
}
