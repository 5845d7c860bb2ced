package progressbar

import (
	"sync"
	"testing"
	"time"
)

// The update interval is effectively never in these tests so that the
// bar only renders on the final newline printed by Close.

func TestProgressBarConcurrentIncrementAndClose(t *testing.T) {
	for i := 0; i < 25; i++ {
		bar := NewProgressBar(10, 50, time.Hour, false)
		bar.Display()

		var wg sync.WaitGroup
		for j := 0; j < 50; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				bar.Increment()
			}()
		}

		// Close without waiting, so increments race the shutdown
		bar.Close()
		wg.Wait()

		// Increments on a closed bar are ignored
		bar.Increment()
	}
}

func TestProgressBarIncrementsPastMax(t *testing.T) {
	bar := NewProgressBar(10, 3, time.Hour, false)
	bar.Display()

	for i := 0; i < 10; i++ {
		bar.Increment()
	}
	bar.Close()
}

func TestProgressBarCloseWithoutDisplay(t *testing.T) {
	bar := NewProgressBar(10, 5, time.Hour, false)
	bar.Increment()
	bar.Close()
}

func TestProgressBarDoubleClosePanics(t *testing.T) {
	bar := NewProgressBar(10, 5, time.Hour, false)
	bar.Display()
	bar.Close()

	defer func() {
		if recover() == nil {
			t.Error("expected panic closing a closed progress bar")
		}
	}()
	bar.Close()
}
