// Package report renders extraction run reports from markdown to HTML and,
// through headless Chromium, to PDF.
package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joelkehle/biograph/internal/kgextract"
)

const styleCSS = `
body{font-family:Georgia,serif;color:#1c1917;line-height:1.5;}
.report-wrap{max-width:900px;margin:0 auto;padding:0.6rem;}
.report-meta{color:#44403c;font-size:0.9rem;margin-bottom:1rem;}
.report-meta strong{color:#1c1917;}
.report-html h1{font-size:1.5rem;border-bottom:2px solid #0f766e;padding-bottom:0.3rem;}
.report-html h2{font-size:1.15rem;color:#0f766e;margin-top:1.4rem;}
.report-html table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.85rem;}
.report-html th,.report-html td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
.report-html thead th{background:#f1f5f9;font-weight:700;}
.report-html code{background:#f5f5f4;padding:0.05rem 0.25rem;border-radius:3px;font-size:0.85em;}
.report-html pre{background:#f5f5f4;padding:0.6rem;overflow-x:auto;font-size:0.8rem;}
@media print{@page{size:A4;margin:12mm;} body{background:#fff;}}
`

// BuildHTML converts report markdown into a standalone HTML document with a
// bibliographic header.
func BuildHTML(markdown string, meta *kgextract.DocumentMetadata) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>Knowledge Graph Report</title>" +
		"<style>" + styleCSS + "</style></head><body>" +
		"<div class='report-wrap'><div class='report-meta'>" + buildMetaHTML(meta) + "</div>" +
		"<div class='report-html'>" + content.String() + "</div></div>" +
		"</body></html>", nil
}

func buildMetaHTML(meta *kgextract.DocumentMetadata) string {
	if meta == nil {
		return ""
	}
	var out strings.Builder
	if meta.Title != "" {
		out.WriteString("<div><strong>Document:</strong> " + html.EscapeString(meta.Title) + "</div>")
	}
	if len(meta.Authors) > 0 {
		out.WriteString("<div><strong>Authors:</strong> " + html.EscapeString(strings.Join(meta.Authors, ", ")) + "</div>")
	}
	if meta.Journal != "" {
		out.WriteString("<div><strong>Journal:</strong> " + html.EscapeString(meta.Journal) + "</div>")
	}
	if meta.DOI != "" {
		out.WriteString("<div><strong>DOI:</strong> " + html.EscapeString(meta.DOI) + "</div>")
	}
	if meta.PMID != "" {
		out.WriteString("<div><strong>PMID:</strong> " + html.EscapeString(meta.PMID) + "</div>")
	}
	return out.String()
}

// PDFRenderer prints report HTML to PDF with headless Chromium.
type PDFRenderer struct {
	chromePath string
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{chromePath: detectChromePath()}
}

func (r *PDFRenderer) Render(ctx context.Context, markdown string, meta *kgextract.DocumentMetadata) ([]byte, error) {
	htmlDoc, err := BuildHTML(markdown, meta)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
