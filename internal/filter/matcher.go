package filter

import (
	"fmt"
	"regexp"
	"strings"

	"go-upwork-scraper/internal/scraper"
)

// Matcher scores listings against the notify include/exclude terms.
type Matcher struct {
	include  *regexp.Regexp
	exclude  *regexp.Regexp
	minScore int
}

// NewMatcher compiles the term lists. Terms match case-insensitively on word
// boundaries and whitespace inside a term matches any run of whitespace.
// An empty include list accepts everything not excluded.
func NewMatcher(include, exclude []string, minScore int) (*Matcher, error) {
	in, err := termsRegex(include)
	if err != nil {
		return nil, fmt.Errorf("include terms: %w", err)
	}
	ex, err := termsRegex(exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude terms: %w", err)
	}
	return &Matcher{include: in, exclude: ex, minScore: minScore}, nil
}

func termsRegex(terms []string) (*regexp.Regexp, error) {
	var parts []string
	for _, t := range terms {
		fields := strings.Fields(t)
		if len(fields) == 0 {
			continue
		}
		for i, f := range fields {
			fields[i] = regexp.QuoteMeta(f)
		}
		parts = append(parts, strings.Join(fields, `\s+`))
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return regexp.Compile(`(?i)\b(` + strings.Join(parts, "|") + `)`)
}

// CalculateMatchScore is 0..10: include terms in the title weigh most, then
// skills, then the description. Expert-level and hourly jobs get a bonus.
func (m *Matcher) CalculateMatchScore(job scraper.Job) int {
	score := 0

	if m.include != nil {
		//title mention (+4)
		if m.include.MatchString(job.Title) {
			score += 4
		}
		//skill badge (+3)
		for _, s := range job.Skills {
			if m.include.MatchString(s) {
				score += 3
				break
			}
		}
		//description (+2)
		if m.include.MatchString(job.Description) {
			score += 2
		}
	}

	//level bonus
	if strings.EqualFold(job.ExperienceLevel, "Expert") {
		score += 1
	}
	if strings.HasPrefix(strings.ToLower(job.JobType), "hourly") {
		score += 1
	}

	//score normalizing
	if score > 10 {
		return 10
	}
	return score
}
