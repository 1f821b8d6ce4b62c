package reporter

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"go-upwork-scraper/internal/dedup"
	"go-upwork-scraper/internal/filter"
	"go-upwork-scraper/internal/runner"
	"go-upwork-scraper/internal/scraper"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// sender is the part of *tgbotapi.BotAPI the reporter needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramReporter pushes newly seen listings that pass the matcher to a chat,
// and one status message per pass.
type TelegramReporter struct {
	api     sender
	chatID  int64
	matcher *filter.Matcher
	seen    *dedup.JobCache
	//paces every send to avoid 429
	limiter  *rate.Limiter
	failures []string
}

func NewTelegramReporter(token string, chatID int64, matcher *filter.Matcher, seen *dedup.JobCache) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//bot.Debug = true

	//one message per second per chat
	return newReporter(bot, chatID, matcher, seen, rate.NewLimiter(rate.Every(time.Second), 1)), nil
}

func newReporter(api sender, chatID int64, matcher *filter.Matcher, seen *dedup.JobCache, limiter *rate.Limiter) *TelegramReporter {
	return &TelegramReporter{
		api:     api,
		chatID:  chatID,
		matcher: matcher,
		seen:    seen,
		limiter: limiter,
	}
}

type scoredJob struct {
	job   scraper.Job
	score int
}

// AfterKeyword sends the keyword's new matching listings, best score first.
// Failed keywords are remembered for the pass summary.
func (t *TelegramReporter) AfterKeyword(ctx context.Context, entry scraper.RunLogEntry, jobs []scraper.Job) error {
	if !entry.Success {
		t.failures = append(t.failures, fmt.Sprintf("%s: %s", entry.Keyword, entry.ErrorMessage))
		return nil
	}

	var picked []scoredJob
	inBatch := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		if inBatch[job.URL] || (t.seen != nil && t.seen.IsSeen(job.URL)) {
			continue
		}
		if t.matcher != nil && !t.matcher.ShouldNotify(job) {
			continue
		}
		score := 0
		if t.matcher != nil {
			score = t.matcher.CalculateMatchScore(job)
		}
		inBatch[job.URL] = true
		picked = append(picked, scoredJob{job: job, score: score})
	}
	if len(picked) == 0 {
		return nil
	}

	//sort jobs by score
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].score > picked[j].score
	})
	log.Printf("📊 '%s': %d new jobs to send", entry.Keyword, len(picked))

	var sent []string
	defer func() {
		if t.seen != nil {
			t.seen.Add(sent)
		}
	}()
	for _, p := range picked {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := t.api.Send(t.jobMessage(p.job, p.score)); err != nil {
			return fmt.Errorf("send job %s: %w", p.job.URL, err)
		}
		sent = append(sent, p.job.URL)
	}
	return nil
}

// AfterPass sends a one-message summary and lists the keywords that failed.
func (t *TelegramReporter) AfterPass(ctx context.Context, s runner.PassSummary) error {
	failures := t.failures
	t.failures = nil

	text := fmt.Sprintf("✅ Pass %d finished in %s: %d/%d keywords ok, %d jobs scraped.",
		s.Pass, s.FinishedAt.Sub(s.StartedAt).Round(time.Second), s.Succeeded, s.Keywords, s.Records)
	if len(failures) > 0 {
		text += "\n⚠️ Failed:\n" + strings.Join(failures, "\n")
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.SendStatus(text)
}

func (t *TelegramReporter) SendStatus(message string) error {
	msg := tgbotapi.NewMessage(t.chatID, "ℹ️ "+message)
	_, err := t.api.Send(msg)
	return err
}

func (t *TelegramReporter) jobMessage(job scraper.Job, score int) tgbotapi.MessageConfig {
	//build message chunks
	msgText := fmt.Sprintf("🔥 *%s*\n", escapeMarkdown(job.Title))
	msgText += fmt.Sprintf("💼 %s · %s · %s\n", escapeMarkdown(job.JobType), escapeMarkdown(job.ExperienceLevel), escapeMarkdown(job.Duration))
	msgText += fmt.Sprintf("📍 %s\n", escapeMarkdown(job.ClientCountry))
	msgText += fmt.Sprintf("🛠 %s\n", escapeMarkdown(job.SkillsText()))
	if job.Description != scraper.NotAvailable {
		msgText += fmt.Sprintf("📄 %s\n", escapeMarkdown(truncate(job.Description, 400)))
	}
	msgText += fmt.Sprintf("🤖 Match Score: %d/10\n", score)
	msgText += fmt.Sprintf("🔖 Keyword: %s\n", escapeMarkdown(job.Keyword))

	msg := tgbotapi.NewMessage(t.chatID, msgText)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", job.URL),
		),
	)
	return msg
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!", "\\", "\\\\",
	)
	return replacer.Replace(text)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
