package filter

import (
	"strings"

	"go-upwork-scraper/internal/scraper"
)

// ShouldNotify reports whether a listing is worth pushing to the chat.
func (m *Matcher) ShouldNotify(job scraper.Job) bool {
	if job.URL == scraper.NotAvailable {
		return false
	}
	text := strings.Join([]string{job.Title, job.Description, strings.Join(job.Skills, " ")}, " ")

	//must not contain exclude terms
	if m.exclude != nil && m.exclude.MatchString(text) {
		return false
	}

	//must contain one include term, when any are configured
	if m.include != nil && !m.include.MatchString(text) {
		return false
	}

	return m.CalculateMatchScore(job) >= m.minScore
}
