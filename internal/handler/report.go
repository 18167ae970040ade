package handler

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nao1215/markdown"
)

const summaryURLWidth = 72

// WriteMarkdown renders report as a markdown document.
func WriteMarkdown(w io.Writer, report *Report) error {
	md := markdown.NewMarkdown(w)

	md.H1("Sitemap Extraction Report")
	md.PlainText("")

	rows := [][]string{}
	if report.SitemapURL != "" {
		rows = append(rows, []string{"Sitemap", "`" + report.SitemapURL + "`"})
	}
	rows = append(rows,
		[]string{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Duration", report.Duration.Round(time.Millisecond).String()},
		[]string{"Output directory", "`" + report.OutputDir + "`"},
		[]string{"URLs", strconv.Itoa(report.Total)},
		[]string{"Succeeded", strconv.Itoa(report.Succeeded)},
		[]string{"Failed", strconv.Itoa(report.Failed)},
		[]string{"Extracted items", strconv.Itoa(report.Items)},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case report.Total == 0:
		md.Note("The sitemap listed no URLs.")
	case report.Failed == 0:
		md.Tip("Every URL was extracted.")
	default:
		md.Warningf("%d of %d URLs failed.", report.Failed, report.Total)
	}
	md.PlainText("")

	if len(report.Files) > 0 {
		md.H2("Artifacts")
		md.PlainText("")
		names := make([]string, len(report.Files))
		for i, f := range report.Files {
			names[i] = filepath.Base(f)
		}
		md.BulletList(names...)
		md.PlainText("")
	}

	if len(report.Failures) > 0 {
		md.H2("Failures")
		md.PlainText("")
		failRows := make([][]string, len(report.Failures))
		for i, f := range report.Failures {
			failRows[i] = []string{f.URL, f.Error}
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Error"},
			Rows:   failRows,
		})
		md.PlainText("")
	}

	if report.Pool.TasksSubmitted > 0 {
		md.H2("Worker Pool")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Tasks submitted", strconv.FormatUint(report.Pool.TasksSubmitted, 10)},
				{"Tasks rejected", strconv.FormatUint(report.Pool.TasksRejected, 10)},
				{"Average crawl", report.Pool.AverageDuration.Round(time.Millisecond).String()},
				{"Slowest crawl", report.Pool.MaxDuration.Round(time.Millisecond).String()},
			},
		})
		md.PlainText("")
	}

	return md.Build()
}

// PrintSummary writes a fixed-width plain text summary for the terminal.
func PrintSummary(w io.Writer, report *Report) {
	fmt.Fprintf(w, "%d URLs, %d extracted, %d failed in %s\n",
		report.Total, report.Succeeded, report.Failed, report.Duration.Round(time.Millisecond))
	if len(report.Files) > 0 {
		fmt.Fprintf(w, "Artifacts written to %s\n", report.OutputDir)
	}
	for _, f := range report.Failures {
		url := runewidth.Truncate(f.URL, summaryURLWidth, "...")
		fmt.Fprintf(w, "  FAIL %s  %s\n", runewidth.FillRight(url, summaryURLWidth), f.Error)
	}
}
