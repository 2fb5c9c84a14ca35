package console

/* Adapted from https://code.rocket9labs.com/tslocum/cview/src/branch/master/progressbar.go
 * MIT License, Copyright (c) 2020 Trevor Slocum <trevor@rocketnine.space>
 */

import (
	"math"
	"strconv"
	"strings"
	"sync"
)

// ProgressBar renders the progress of an operation as a line of text.
type ProgressBar struct {
	sync.RWMutex

	// Rune used for the empty area of the progress bar.
	emptyRune rune

	// Rune used for the filled area of the progress bar.
	filledRune rune

	// Width of the bar, excluding the percentage.
	width int

	// Current progress.
	progress int64

	// Progress required to fill the bar.
	max int64
}

// NewProgressBar returns a new progress bar.
func NewProgressBar(width int) *ProgressBar {
	return &ProgressBar{
		emptyRune:  '.',
		filledRune: '#',
		width:      width,
		max:        100,
	}
}

// SetProgress sets the current progress.
func (p *ProgressBar) SetProgress(progress int64) {
	p.Lock()
	defer p.Unlock()

	p.progress = progress
	if p.progress < 0 {
		p.progress = 0
	} else if p.progress > p.max {
		p.progress = p.max
	}
}

// GetProgress gets the current progress.
func (p *ProgressBar) GetProgress() int64 {
	p.RLock()
	defer p.RUnlock()

	return p.progress
}

// Complete returns whether the progress bar has been filled.
func (p *ProgressBar) Complete() bool {
	p.RLock()
	defer p.RUnlock()

	return p.progress >= p.max
}

// Render draws the bar, for example "[#####.....]  50%".
func (p *ProgressBar) Render() string {
	p.RLock()
	defer p.RUnlock()

	barLength := min(int(math.RoundToEven(float64(p.width)*(float64(p.progress)/float64(p.max)))), p.width)
	percent := strconv.FormatInt(p.progress*100/p.max, 10)

	return "[" + strings.Repeat(string(p.filledRune), barLength) + strings.Repeat(string(p.emptyRune), p.width-barLength) + "] " +
		strings.Repeat(" ", 3-len(percent)) + percent + "%"
}
