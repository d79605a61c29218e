package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/anonyfiles-go/internal/client"
	"github.com/raphaelgruber/anonyfiles-go/internal/models"
)

// resultTargets are the destinations for the parts of a result.
type resultTargets struct {
	Output     string // empty writes the text to stdout
	MappingOut string
	AuditOut   string
}

// writeResult writes the output text, mapping table and audit log.
// A mapping missing from the result is fetched from the job's artifacts.
func writeResult(ctx context.Context, stdout io.Writer, r models.JobResult, t resultTargets) error {
	if t.Output == "" {
		if _, err := io.WriteString(stdout, r.Text); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if r.Text != "" && !strings.HasSuffix(r.Text, "\n") {
			fmt.Fprintln(stdout)
		}
	} else if err := os.WriteFile(t.Output, []byte(r.Text), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if t.MappingOut != "" {
		if err := writeMapping(ctx, r, t.MappingOut); err != nil {
			return err
		}
	}

	if t.AuditOut != "" {
		data, err := json.MarshalIndent(r.AuditLog, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal audit log: %w", err)
		}
		if err := os.WriteFile(t.AuditOut, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write audit log: %w", err)
		}
	}
	return nil
}

func writeMapping(ctx context.Context, r models.JobResult, path string) error {
	if r.MappingCSV != "" {
		if err := os.WriteFile(path, []byte(r.MappingCSV), 0o600); err != nil {
			return fmt.Errorf("write mapping: %w", err)
		}
		return nil
	}
	if r.JobID == "" {
		return fmt.Errorf("no mapping available in the result")
	}

	if _, err := downloadToFile(ctx, apiClient, r.JobID, client.FileMapping, path, 0o600); err != nil {
		return fmt.Errorf("download mapping: %w", err)
	}
	return nil
}

type fileDownloader interface {
	DownloadFile(ctx context.Context, jobID string, key client.FileKey, w io.Writer) (int64, error)
}

// downloadToFile streams a job artifact into a temp file next to path and
// renames it into place. A failed download leaves path untouched.
func downloadToFile(ctx context.Context, dl fileDownloader, jobID string, key client.FileKey, path string, perm os.FileMode) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	n, err := dl.DownloadFile(ctx, jobID, key, tmp)
	if err != nil {
		return n, err
	}
	if err := tmp.Chmod(perm); err != nil {
		return n, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		committed = true
		return n, fmt.Errorf("move into place: %w", err)
	}
	committed = true
	return n, nil
}
