package handler

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitemap-extract/pkg/worker"
)

func sampleReport() *Report {
	return &Report{
		SitemapURL: "https://site.com/sitemap.xml",
		OutputDir:  ".data",
		Total:      3,
		Succeeded:  2,
		Failed:     1,
		Items:      3,
		Files:      []string{".data/a.json", ".data/c.json"},
		Failures:   []Failure{{URL: "https://site.com/b", Error: "navigation timeout"}},
		StartedAt:  time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
		Duration:   1500 * time.Millisecond,
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "# Sitemap Extraction Report")
	assert.Contains(t, out, "https://site.com/sitemap.xml")
	assert.Contains(t, out, "## Artifacts")
	assert.Contains(t, out, "a.json")
	assert.Contains(t, out, "## Failures")
	assert.Contains(t, out, "navigation timeout")
	assert.NotContains(t, out, "## Worker Pool")
}

func TestWriteMarkdown_PoolMetrics(t *testing.T) {
	report := sampleReport()
	report.Pool = worker.MetricsSnapshot{
		TasksSubmitted:  3,
		AverageDuration: 400 * time.Millisecond,
		MaxDuration:     900 * time.Millisecond,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, report))
	assert.Contains(t, buf.String(), "## Worker Pool")
	assert.Contains(t, buf.String(), "900ms")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	r := sampleReport()
	r.Failures = append(r.Failures, Failure{URL: "https://site.com/" + strings.Repeat("x", 200), Error: "HTTP 404"})
	PrintSummary(&buf, r)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "3 URLs, 2 extracted, 1 failed in 1.5s", lines[0])
	assert.Contains(t, lines[3], "...")
	assert.Contains(t, lines[3], "HTTP 404")
	assert.Less(t, len(lines[3]), 120)
}
