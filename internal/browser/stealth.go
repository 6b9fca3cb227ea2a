package browser

import (
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDelay waits for a random duration between min and max milliseconds.
func RandomDelay(min, max int) {
	if min >= max {
		time.Sleep(time.Duration(min) * time.Millisecond)
		return
	}
	time.Sleep(time.Duration(rand.Intn(max-min)+min) * time.Millisecond)
}

// HumanScroll walks down the listing in a few uneven steps, nudges the mouse,
// and finishes at the bottom so lazily rendered result cards get attached.
func HumanScroll(page playwright.Page) error {
	for i := 0; i < 3; i++ {
		if _, err := page.Evaluate("window.scrollBy(0, window.innerHeight / 2)"); err != nil {
			return err
		}
		RandomDelay(200, 600)
	}
	if err := MouseJiggle(page); err != nil {
		return err
	}
	_, err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}

// MouseJiggle moves the mouse to a couple of random points in the viewport.
func MouseJiggle(page playwright.Page) error {
	vp := page.ViewportSize()
	if vp == nil || vp.Width <= 0 || vp.Height <= 0 {
		return nil
	}
	for i := 0; i < 2; i++ {
		x := float64(rand.Intn(vp.Width))
		y := float64(rand.Intn(vp.Height))
		if err := page.Mouse().Move(x, y); err != nil {
			return err
		}
		RandomDelay(100, 300)
	}
	return nil
}
