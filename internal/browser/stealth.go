package browser

import (
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDelay waits for a random duration between min and max milliseconds
func RandomDelay(min, max int) {
	if min >= max {
		time.Sleep(time.Duration(min) * time.Millisecond)
		return
	}
	duration := rand.Intn(max-min+1) + min
	time.Sleep(time.Duration(duration) * time.Millisecond)
}

// ScrollToBottom jumps to the end of the document so lazy tiles render
func ScrollToBottom(page playwright.Page) error {
	_, err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}

// HumanScroll simulates human-like scrolling behavior before the final jump
func HumanScroll(page playwright.Page) error {
	// Scroll down in steps
	for i := 0; i < 3; i++ {
		if _, err := page.Evaluate("window.scrollBy(0, window.innerHeight / 2)"); err != nil {
			return err
		}
		RandomDelay(200, 600)
	}
	return ScrollToBottom(page)
}
