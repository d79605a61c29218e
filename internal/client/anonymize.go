package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/raphaelgruber/anonyfiles-go/internal/models"
)

// inlineTextName is the part file name used when inline text is uploaded.
const inlineTextName = "input.txt"

// ValidateSubmission checks the staging invariants of an anonymization request.
func ValidateSubmission(req models.SubmissionRequest) error {
	switch {
	case req.Text == nil && req.File == nil:
		return &ValidationError{Field: "input", Message: "either inline text or a file is required"}
	case req.Text != nil && req.File != nil:
		return &ValidationError{Field: "input", Message: "inline text and file are mutually exclusive"}
	case req.File != nil && req.File.Reader == nil:
		return &ValidationError{Field: "file", Message: "file has no content"}
	case req.File == nil && req.Kind.RequiresFile():
		return &ValidationError{Field: "file", Message: fmt.Sprintf("a file is required for %s input", req.Kind)}
	}
	return nil
}

// SubmitAnonymize uploads the staged input to /anonymize/.
// The returned Submission is either an immediate result or a job to poll.
func (c *Client) SubmitAnonymize(ctx context.Context, req models.SubmissionRequest) (Submission, error) {
	if err := ValidateSubmission(req); err != nil {
		return Submission{}, err
	}

	body, contentType, err := encodeAnonymizeForm(req)
	if err != nil {
		return Submission{}, fmt.Errorf("encode form: %w", err)
	}
	c.logger.Debug("anonymize options",
		"effective", models.EffectiveOptions(req.Options, len(req.Rules) > 0),
		"rules", len(req.Rules))

	data, err := c.doJSON(ctx, http.MethodPost, "/anonymize/", body, contentType)
	if err != nil {
		return Submission{}, err
	}
	return decodeSubmission(models.OperationAnonymize, data), nil
}

// AnonymizeStatus polls the status of an anonymization job.
func (c *Client) AnonymizeStatus(ctx context.Context, jobID string) (StatusReport, error) {
	return c.status(ctx, models.OperationAnonymize, "/anonymize_status/", jobID)
}

func (c *Client) status(ctx context.Context, op models.Operation, prefix, jobID string) (StatusReport, error) {
	if strings.TrimSpace(jobID) == "" {
		return StatusReport{}, &ValidationError{Field: "job_id", Message: "job id is required"}
	}
	data, err := c.doJSON(ctx, http.MethodGet, prefix+url.PathEscape(jobID), nil, "")
	if err != nil {
		return StatusReport{}, err
	}
	return decodeStatus(op, jobID, data)
}

// encodeAnonymizeForm builds the multipart body. Options travel as one JSON
// field so the option set stays open-ended.
func encodeAnonymizeForm(req models.SubmissionRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if req.Text != nil {
		if err := writeFilePart(w, "file", inlineTextName, "text/plain", strings.NewReader(*req.Text)); err != nil {
			return nil, "", err
		}
	} else {
		name := req.File.Name
		if name == "" {
			name = "input"
			if req.Kind != models.FileKindNone {
				name += "." + string(req.Kind)
			}
		}
		if err := writeFilePart(w, "file", name, "application/octet-stream", req.File.Reader); err != nil {
			return nil, "", err
		}
	}

	configOptions, err := marshalConfigOptions(req.Options, req.Rules)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("config_options", configOptions); err != nil {
		return nil, "", err
	}

	if len(req.Rules) > 0 {
		rules, err := json.Marshal(req.Rules)
		if err != nil {
			return nil, "", fmt.Errorf("marshal custom rules: %w", err)
		}
		if err := w.WriteField("custom_replacement_rules", string(rules)); err != nil {
			return nil, "", err
		}
	}

	if err := w.WriteField("file_type", string(req.Kind)); err != nil {
		return nil, "", err
	}
	if req.Kind.Tabular() {
		if err := w.WriteField("has_header", strconv.FormatBool(req.HasHeader)); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// marshalConfigOptions merges the explicit option overrides with the custom
// rules. Keys left out are resolved by the service.
func marshalConfigOptions(options map[string]bool, rules []models.CustomRule) (string, error) {
	merged := make(map[string]any, len(options)+1)
	for k, v := range options {
		merged[k] = v
	}
	if len(rules) > 0 {
		merged["custom_replacement_rules"] = rules
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return "", fmt.Errorf("marshal config options: %w", err)
	}
	return string(data), nil
}

func writeFilePart(w *multipart.Writer, field, filename, contentType string, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy %s: %w", field, err)
	}
	return nil
}
