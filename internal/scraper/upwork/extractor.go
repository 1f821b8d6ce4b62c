package upwork

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go-upwork-scraper/internal/scraper"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// DefaultOrigin is prepended to relative job links.
const DefaultOrigin = "https://www.upwork.com"

const (
	jobTileSelector = `section[data-test="JobTile"]`
	skillSelector   = "a.up-skill-badge.text-muted"
)

// fieldRule pulls one scalar field out of a job tile.
// A rule that reports ok=false leaves the field at scraper.NotAvailable.
type fieldRule struct {
	name     string
	selector string
	value    func(e *Extractor, sel *goquery.Selection) (string, bool)
	set      func(j *scraper.Job, v string)
}

var fieldRules = []fieldRule{
	{
		name:     "url",
		selector: "h4.job-tile-title a[href]",
		value:    (*Extractor).link,
		set:      func(j *scraper.Job, v string) { j.URL = v },
	},
	{
		name:     "title",
		selector: "h4.job-tile-title",
		value:    firstText,
		set:      func(j *scraper.Job, v string) { j.Title = v },
	},
	{
		name:     "job_type",
		selector: `strong[data-test="job-type"]`,
		value:    firstText,
		set:      func(j *scraper.Job, v string) { j.JobType = v },
	},
	{
		name:     "experience",
		selector: `span[data-test="contractor-tier"]`,
		value:    firstText,
		set:      func(j *scraper.Job, v string) { j.ExperienceLevel = v },
	},
	{
		name:     "duration",
		selector: `span[data-test="duration"]`,
		value:    firstText,
		set:      func(j *scraper.Job, v string) { j.Duration = v },
	},
	{
		name:     "description",
		selector: `span[data-test="job-description-text"]`,
		value:    firstText,
		set:      func(j *scraper.Job, v string) { j.Description = v },
	},
	{
		name:     "client_country",
		selector: `small[data-test="client-country"]`,
		value:    firstText,
		set:      func(j *scraper.Job, v string) { j.ClientCountry = v },
	},
}

// Extractor turns a rendered Upwork search page into job records.
// It does no I/O and is safe for concurrent use.
type Extractor struct {
	origin *url.URL
}

// NewExtractor builds an extractor resolving relative links against origin.
func NewExtractor(origin string) (*Extractor, error) {
	if origin == "" {
		origin = DefaultOrigin
	}
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse site origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("site origin %q must be an absolute URL", origin)
	}
	return &Extractor{origin: u}, nil
}

// Extract parses rawHTML and returns one record per job tile in document order.
// Only unparseable input is an error; missing fields become scraper.NotAvailable.
func (e *Extractor) Extract(rawHTML, keyword string, capturedAt time.Time) ([]scraper.Job, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, fmt.Errorf("%w: empty input", scraper.ErrUnreadable)
	}
	if !utf8.ValidString(rawHTML) {
		return nil, fmt.Errorf("%w: invalid utf-8", scraper.ErrUnreadable)
	}

	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scraper.ErrUnreadable, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	jobs := make([]scraper.Job, 0)
	doc.Find(jobTileSelector).Each(func(_ int, tile *goquery.Selection) {
		jobs = append(jobs, e.extractJob(tile, keyword, capturedAt))
	})
	return jobs, nil
}

func (e *Extractor) extractJob(tile *goquery.Selection, keyword string, capturedAt time.Time) scraper.Job {
	job := scraper.Job{
		Keyword:   keyword,
		ScrapedAt: capturedAt,
	}
	for _, rule := range fieldRules {
		v, ok := rule.value(e, tile.Find(rule.selector))
		if !ok {
			v = scraper.NotAvailable
		}
		rule.set(&job, v)
	}
	job.Skills = skills(tile)
	return job
}

// link resolves the first href in sel against the site origin.
// An empty href resolves to the origin itself.
func (e *Extractor) link(sel *goquery.Selection) (string, bool) {
	href, ok := sel.First().Attr("href")
	if !ok {
		return "", false
	}
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return e.origin.ResolveReference(ref).String(), true
}

// firstText is missing only when no node matches; a blank node yields "".
func firstText(_ *Extractor, sel *goquery.Selection) (string, bool) {
	if sel.Length() == 0 {
		return "", false
	}
	return cleanText(sel.First().Text()), true
}

// skills returns badge texts in document order, blank ones included; nil when
// the tile has no badges.
func skills(tile *goquery.Selection) []string {
	var out []string
	tile.Find(skillSelector).Each(func(_ int, badge *goquery.Selection) {
		out = append(out, cleanText(badge.Text()))
	})
	return out
}

func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
