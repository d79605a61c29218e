package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/raphaelgruber/anonyfiles-go/internal/models"
)

// ValidateDeanonymize checks that both the file and its mapping are staged.
func ValidateDeanonymize(req models.DeanonymizeRequest) error {
	if req.File == nil || req.File.Reader == nil {
		return &ValidationError{Field: "file", Message: "a file to de-anonymize is required"}
	}
	if req.Mapping == nil || req.Mapping.Reader == nil {
		return &ValidationError{Field: "mapping", Message: "a mapping file is required"}
	}
	return nil
}

// SubmitDeanonymize uploads a file and its mapping to /deanonymize/.
func (c *Client) SubmitDeanonymize(ctx context.Context, req models.DeanonymizeRequest) (Submission, error) {
	if err := ValidateDeanonymize(req); err != nil {
		return Submission{}, err
	}

	body, contentType, err := encodeDeanonymizeForm(req)
	if err != nil {
		return Submission{}, fmt.Errorf("encode form: %w", err)
	}

	data, err := c.doJSON(ctx, http.MethodPost, "/deanonymize/", body, contentType)
	if err != nil {
		return Submission{}, err
	}
	return decodeSubmission(models.OperationDeanonymize, data), nil
}

// DeanonymizeStatus polls the status of a de-anonymization job.
func (c *Client) DeanonymizeStatus(ctx context.Context, jobID string) (StatusReport, error) {
	return c.status(ctx, models.OperationDeanonymize, "/deanonymize_status/", jobID)
}

func encodeDeanonymizeForm(req models.DeanonymizeRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := writeFilePart(w, "file", partName(req.File, "input.txt"), "application/octet-stream", req.File.Reader); err != nil {
		return nil, "", err
	}
	if err := writeFilePart(w, "mapping", partName(req.Mapping, "mapping.csv"), "text/csv", req.Mapping.Reader); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("permissive", strconv.FormatBool(req.Permissive)); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func partName(f *models.StagedFile, fallback string) string {
	if f.Name != "" {
		return f.Name
	}
	return fallback
}
