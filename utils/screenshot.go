package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ScreenShotDebugger saves full-page screenshots when a fetch goes wrong
type ScreenShotDebugger struct {
	outputDir string
}

// NewScreenShotDebugger returns nil when dir is empty; a nil debugger does nothing.
func NewScreenShotDebugger(dir string) *ScreenShotDebugger {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("⚠️ Failed to create screenshot directory: %v", err)
	}
	return &ScreenShotDebugger{
		outputDir: dir,
	}
}

// FileName builds the screenshot file name for a capture taken at ts.
func (s *ScreenShotDebugger) FileName(name string, ts time.Time) string {
	safe := unsafeNameChars.ReplaceAllString(name, "_")
	return filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", safe, ts.Format("2006-01-02_15-04-05")))
}

func (s *ScreenShotDebugger) CaptureAndLog(page playwright.Page, name, message string) error {
	if s == nil {
		return nil
	}
	path := s.FileName(name, time.Now())
	log.Printf("📸 %s", message)

	//Take screenshot
	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		log.Printf("⚠️ Failed to capture screenshot: %v", err)
		return err
	}

	log.Printf("   Screenshot saved: %s", path)
	return nil
}
