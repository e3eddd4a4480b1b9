package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/david/opportunity-sync/internal/auth"
	"github.com/david/opportunity-sync/internal/ingest"
	"github.com/spf13/cobra"
)

type pushFlags struct {
	server   string
	token    string
	quotes   string
	jobs     string
	requests string
	dryRun   bool
	timeout  time.Duration
}

func newPushCmd(a *app) *cobra.Command {
	f := &pushFlags{}
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload export files to a running server",
		Long: `push sends the exports to POST /api/v1/imports. It authenticates with
--token when given, otherwise with ADMIN_SECRET.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := a.cfg.AdminSecret
			if f.token == "" && secret == "" {
				return fmt.Errorf("either --token or ADMIN_SECRET is required")
			}
			result, err := pushImport(cmd, f, secret)
			if err != nil {
				return err
			}
			renderResult(cmd, result)
			if !result.Success {
				return fmt.Errorf("import finished with %d error(s)", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.server, "server", "http://localhost:8081", "server base URL")
	cmd.Flags().StringVar(&f.token, "token", "", "admin bearer token")
	cmd.Flags().StringVar(&f.quotes, "quotes", "", "quotes export (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.jobs, "jobs", "", "jobs export (optional)")
	cmd.Flags().StringVar(&f.requests, "requests", "", "requests export (optional)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "ask the server not to write anything")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Minute, "request timeout")
	_ = cmd.MarkFlagRequired("quotes")
	return cmd
}

func pushImport(cmd *cobra.Command, f *pushFlags, secret string) (ingest.ImportResult, error) {
	var result ingest.ImportResult

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	for field, path := range map[ingest.SourceFile]string{
		ingest.FileQuotes:   f.quotes,
		ingest.FileJobs:     f.jobs,
		ingest.FileRequests: f.requests,
	} {
		if path == "" {
			continue
		}
		if err := attachFile(form, string(field), path); err != nil {
			return result, err
		}
	}
	if err := form.Close(); err != nil {
		return result, err
	}

	url := strings.TrimRight(f.server, "/") + "/api/v1/imports"
	if f.dryRun {
		url += "?dry_run=true"
	}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, body)
	if err != nil {
		return result, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	} else {
		req.Header.Set(auth.AdminSecretHeader, secret)
	}

	client := &http.Client{Timeout: f.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return result, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return result, fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

func attachFile(form *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	part, err := form.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}
