// Package manpage locates task documentation. A SAS installation ships
// HTML manuals under <SAS_DIR>/doc; when none is installed the online
// copy is rendered headlessly and returned as plain text.
package manpage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"saskit/internal/logging"
)

// DefaultBaseURL is the online documentation root for the current SAS
// release.
const DefaultBaseURL = "https://xmm-tools.cosmos.esa.int/external/sas/current/doc/"

const defaultTimeout = 20 * time.Second

// URL returns the online documentation address for a task.
func URL(task string) string { return DefaultBaseURL + task + "/index.html" }

// LocalPath returns the documentation entry point inside a SAS
// installation, or "" when the installation carries no manual for the
// task.
func LocalPath(sasDir, task string) string {
	if sasDir == "" {
		return ""
	}
	p := filepath.Join(sasDir, "doc", task, "index.html")
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		return p
	}
	return ""
}

// Resolver fetches task documentation, preferring the local
// installation over the network.
type Resolver struct {
	SASDir  string        // installation root holding doc/<task>/index.html
	BaseURL string        // online root; DefaultBaseURL when empty
	Timeout time.Duration // per-fetch bound; defaultTimeout when zero

	log *slog.Logger
}

// NewResolver returns a resolver over the given installation root. An
// empty root skips the local lookup entirely.
func NewResolver(sasDir string) *Resolver {
	return &Resolver{SASDir: sasDir, log: logging.New("manpage")}
}

// Resolve returns the manual for a task: a file URL when the local
// installation has one, otherwise the text of the online page.
func (r *Resolver) Resolve(ctx context.Context, task string) (string, error) {
	if p := LocalPath(r.SASDir, task); p != "" {
		return "file://" + p + "\n", nil
	}
	return r.fetch(ctx, task)
}

func (r *Resolver) url(task string) string {
	base := r.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return base + task + "/index.html"
}

// fetch renders the online manual in a headless browser and extracts
// the body text.
func (r *Resolver) fetch(ctx context.Context, task string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if r.log != nil {
		r.log.Debug("rendering online manual", "task", task, "url", r.url(task))
	}

	var text string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(r.url(task)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Text("body", &text, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render manual for %s: %w", task, err)
	}
	return text, nil
}
