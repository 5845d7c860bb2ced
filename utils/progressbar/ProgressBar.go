// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressBar implements a concurrent progress bar. Rendering and
// progress accounting both happen in a single display goroutine, which
// exclusively owns the progress counter. Increment and Close may be
// called from any goroutine.
type ProgressBar struct {
	// width determines the number of characters wide that the progress
	// bar should be
	width float64

	// maxProgress determines the number of times Increment() should
	// be called before the progress bar reaches 100%
	maxProgress float64

	// incrementEvent carries increment signals to the display
	// goroutine. The channel is buffered to maxProgress and is never
	// closed, so senders never block and never race Close.
	incrementEvent chan struct{}

	closeEvent chan struct{}
	done       chan struct{}

	mu         sync.Mutex
	closed     bool
	displaying bool

	updateEvery       time.Duration
	updateAtIncrement bool
}

// NewProgressBar returns a new progress bar that is width characters
// wide and reaches 100% capacity after max Increment() calls. The bar
// redraws every updateEvery, and additionally at every Increment()
// call when updateAtIncrement is set.
func NewProgressBar(width, max int, updateEvery time.Duration,
	updateAtIncrement bool) *ProgressBar {
	return &ProgressBar{
		width:             float64(width),
		maxProgress:       float64(max),
		incrementEvent:    make(chan struct{}, max),
		closeEvent:        make(chan struct{}),
		done:              make(chan struct{}),
		updateEvery:       updateEvery,
		updateAtIncrement: updateAtIncrement,
	}
}

// Increment increments the internal progress counter. Each time an
// iteration is performed, Increment should be called. Increments on a
// closed progress bar are ignored.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	select {
	case p.incrementEvent <- struct{}{}:
	default:
		// The counter is already saturated past maxProgress
	}
}

// Close closes the progress bar so that it will no longer display to
// the screen, releasing the resources the progress bar is using. Close
// waits for the display goroutine to exit before returning.
func (p *ProgressBar) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		panic("close: close on closed progress bar")
	}
	p.closed = true
	displaying := p.displaying
	p.mu.Unlock()

	close(p.closeEvent)
	if displaying {
		<-p.done
	}
	fmt.Println() // Jump to the next line after the printed bar
}

// Display displays the progress bar on the screen. It should only be
// called once.
func (p *ProgressBar) Display() {
	p.mu.Lock()
	p.displaying = true
	p.mu.Unlock()

	go func() {
		defer close(p.done)

		var currentProgress float64
		maxProgress := p.maxProgress
		width := p.width

		tick := time.NewTicker(p.updateEvery)
		defer tick.Stop()
		var elapsedTime time.Duration

		var bar strings.Builder

		for {
			select {
			case <-p.incrementEvent:
				if currentProgress < maxProgress {
					currentProgress++
				}
				if !p.updateAtIncrement {
					continue
				}

			case <-tick.C:
				elapsedTime += p.updateEvery

			case <-p.closeEvent:
				return
			}

			bar.Reset()
			bar.WriteString("|")

			currentProg := currentProgress / maxProgress * width
			for i := 0.0; i < currentProg; i++ {
				bar.WriteString("█")
			}
			for i := currentProg; i < width; i++ {
				bar.WriteString(" ")
			}
			bar.WriteString(fmt.Sprintf("| [%.2f%% | elapsed: %v]",
				currentProgress/maxProgress*100, elapsedTime))

			fmt.Printf("\n\033[1A\033[K%v", bar.String())
		}
	}()
}
