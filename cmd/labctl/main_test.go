package main

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labmoura/laudos/internal/config"
	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/repository"
	"github.com/labmoura/laudos/internal/server"
	"github.com/labmoura/laudos/internal/storage"
)

func startAPI(t *testing.T, repo repository.Repository) string {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:              "test-secret",
		JWTExpiry:              time.Hour,
		AdminEmails:            "admin@labanalytica.com",
		CORSOrigins:            "*",
		RateLimitPerMinute:     1000,
		AuthRateLimitPerMinute: 1000,
		MaxUploadBytes:         1 << 20,
	}
	app := server.New(cfg, server.Deps{Repo: repo, Files: storage.NewMemory()})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String() + "/api"
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	ana := &models.Client{Name: "Ana", Email: "ana@x.com"}
	require.NoError(t, repo.CreateClient(ctx, ana))
	report := &models.Report{
		Code:                   "LAB-001",
		ClientID:               ana.ID,
		AnalysisType:           models.AnalysisSoil,
		ResponsibleTechnician:  "Maria Souza",
		TechnicianRegistration: "CRQ 12345",
		SampleDate:             models.NewDate(2025, 1, 5),
		IssueDate:              models.NewDate(2025, 1, 10),
		Status:                 models.StatusValid,
	}
	require.NoError(t, repo.CreateReport(ctx, report, nil))

	base := startAPI(t, repo)
	tokenFile := filepath.Join(t.TempDir(), "token")
	labctl := func(args ...string) (int, string, string) {
		var stdout, stderr bytes.Buffer
		code := run(append([]string{"-api", base, "-token-file", tokenFile}, args...), &stdout, &stderr)
		return code, stdout.String(), stderr.String()
	}

	code, out, _ := labctl("validate", report.ID.String())
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "LAB-001")
	assert.Contains(t, out, "Válido")
	assert.Contains(t, out, "Análise de Solo")

	code, _, errOut := labctl("validate", "nonexistent-id")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")

	code, _, errOut = labctl("reports")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not allowed")

	code, out, _ = labctl("login-admin", "-email", "admin@labanalytica.com", "-password", "x")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "signed in")

	code, out, _ = labctl("reports", "-from", "2025-01-01", "-to", "2025-01-31", "-size", "10")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "LAB-001")
	assert.Contains(t, out, "page 1 of 1, 1 reports")

	code, out, _ = labctl("clients")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "ana@x.com")

	code, out, _ = labctl("client-reports", "ana@x.com")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "LAB-001")

	code, _, _ = labctl("logout")
	assert.Equal(t, 0, code)
	code, _, _ = labctl("clients")
	assert.Equal(t, 1, code)

	code, _, _ = labctl("bogus")
	assert.Equal(t, 2, code)
}
