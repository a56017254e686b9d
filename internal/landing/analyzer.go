// Package landing fetches and audits landing pages for the signals that
// feed quality score: on-page basics, mobile readiness, and page weight.
package landing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ignite/ads-console/internal/pkg/httpretry"
)

// maxBodyBytes caps how much of a page we download. Pages heavier than
// this are penalized anyway.
const maxBodyBytes = 3 << 20

// Analyzer fetches and scores landing pages.
type Analyzer struct {
	client httpretry.HTTPDoer
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{client: httpretry.NewRetryClient(&http.Client{Timeout: 15 * time.Second}, 2)}
}

// Finding is one audit observation. Severity is "error" for scoring
// penalties or "warn" for advisory notes.
type Finding struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Report is the audit result for one URL.
type Report struct {
	URL           string    `json:"url"`
	Score         int       `json:"score"` // 0-100
	StatusCode    int       `json:"status_code"`
	Title         string    `json:"title"`
	MetaDesc      string    `json:"meta_description"`
	H1Count       int       `json:"h1_count"`
	WordCount     int       `json:"word_count"`
	HasViewport   bool      `json:"has_viewport"`
	PageBytes     int64     `json:"page_bytes"`
	InternalLinks int       `json:"internal_links"`
	ExternalLinks int       `json:"external_links"`
	ImagesNoAlt   int       `json:"images_missing_alt"`
	Findings      []Finding `json:"findings"`
}

// Analyze downloads the page and scores it. Network and parse failures
// are returned as errors; a non-200 status is reported, not an error.
func (a *Analyzer) Analyze(ctx context.Context, pageURL string) (*Report, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("landing: invalid URL %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("landing: build request: %w", err)
	}
	req.Header.Set("User-Agent", "ads-console-landing-audit/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("landing: fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("landing: read body: %w", err)
	}

	report := &Report{URL: pageURL, StatusCode: resp.StatusCode, PageBytes: int64(len(body))}
	if resp.StatusCode != http.StatusOK {
		report.Findings = append(report.Findings, Finding{
			Severity: "error",
			Message:  fmt.Sprintf("page returned HTTP %d", resp.StatusCode),
		})
		return report, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("landing: parse html: %w", err)
	}

	inspect(doc, parsed.Host, report)
	score(report)
	return report, nil
}

func inspect(doc *goquery.Document, host string, r *Report) {
	r.Title = strings.TrimSpace(doc.Find("title").First().Text())
	r.MetaDesc, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
	r.MetaDesc = strings.TrimSpace(r.MetaDesc)
	r.H1Count = doc.Find("h1").Length()
	r.HasViewport = doc.Find(`meta[name="viewport"]`).Length() > 0
	r.WordCount = len(strings.Fields(doc.Find("body").Text()))

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		if u.Host == "" || u.Host == host {
			r.InternalLinks++
		} else {
			r.ExternalLinks++
		}
	})
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			r.ImagesNoAlt++
		}
	})
}

// score starts from 100 and deducts per finding so the findings list
// always explains the number.
func score(r *Report) {
	pts := 100

	deduct := func(points int, severity, msg string) {
		pts -= points
		r.Findings = append(r.Findings, Finding{Severity: severity, Message: msg})
	}

	switch {
	case r.Title == "":
		deduct(15, "error", "missing <title>")
	case len(r.Title) < 10 || len(r.Title) > 70:
		deduct(5, "warn", "title length outside 10-70 characters")
	}

	if r.MetaDesc == "" {
		deduct(10, "error", "missing meta description")
	}

	switch {
	case r.H1Count == 0:
		deduct(10, "error", "no <h1> heading")
	case r.H1Count > 1:
		deduct(5, "warn", "multiple <h1> headings")
	}

	if !r.HasViewport {
		deduct(15, "error", "no viewport meta, page is not mobile-ready")
	}

	if r.WordCount < 150 {
		deduct(10, "warn", "thin content: fewer than 150 words")
	}

	if r.PageBytes > 1<<20 {
		deduct(10, "warn", "page heavier than 1 MB")
	}

	if r.ImagesNoAlt > 0 {
		deduct(5, "warn", fmt.Sprintf("%d images missing alt text", r.ImagesNoAlt))
	}

	if pts < 0 {
		pts = 0
	}
	r.Score = pts
}
