// Package ui renders a terminal dashboard of per-site liveness windows and
// remediation history.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/doridoridoriand/upsman-go/internal/probe"
	"github.com/doridoridoriand/upsman-go/internal/state"
)

const (
	refreshInterval = 500 * time.Millisecond
	siteBoxHeight   = 5
)

// UI renders a TUI view of site status.
type UI struct {
	interval time.Duration
	count    int
	state    state.Store
}

// New returns a UI instance.
func New(interval time.Duration, count int, store state.Store) *UI {
	return &UI{interval: interval, count: count, state: store}
}

// Run blocks until the context is cancelled or the user quits.
func (u *UI) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.HideCursor()
	defer screen.Fini()

	eventCh := make(chan tcell.Event, 1)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	u.render(screen, u.state.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-eventCh:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return context.Canceled
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			u.render(screen, u.state.Snapshot())
		}
	}
}

func (u *UI) render(screen tcell.Screen, snapshot []state.SiteStatus) {
	screen.Clear()
	width, height := screen.Size()
	if width < 24 || height < 6 {
		screen.Show()
		return
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	header := fmt.Sprintf(" upsman-go  %s  (q to quit)", now)
	drawText(screen, 0, 0, width, header, tcell.StyleDefault.Bold(true))

	settings := fmt.Sprintf(" interval=%s  trigger.count=%d", u.interval, u.count)
	drawText(screen, 0, 1, width, settings, tcell.StyleDefault.Foreground(tcell.ColorGray))

	y := 2
	for _, site := range snapshot {
		if height-y < siteBoxHeight {
			break
		}
		u.drawSiteBox(screen, 0, y, width, siteBoxHeight, site)
		y += siteBoxHeight
	}

	screen.Show()
}

func (u *UI) drawSiteBox(screen tcell.Screen, x, y, width, height int, site state.SiteStatus) {
	drawBox(screen, x, y, width, height)

	style := siteStyle(site)
	title := fmt.Sprintf(" site %d (%s) ", site.ID, site.Color)
	drawText(screen, x+2, y, width-4, title, tcell.StyleDefault.Bold(true))

	target := fmt.Sprintf("ups %s outlet %d  devices %d", site.UPS, site.Outlet, len(site.Devices))
	drawText(screen, x+2, y+1, width-3, target, tcell.StyleDefault)

	down := downCount(site.Window)
	window := fmt.Sprintf("window %s  %d/%d down", windowGlyphs(site.Window), down, len(site.Window))
	drawText(screen, x+2, y+2, width-3, window, style)

	remediation := formatRemediation(site)
	drawText(screen, x+2, y+3, width-3, remediation, tcell.StyleDefault.Foreground(tcell.ColorGray))
}

// windowGlyphs renders the window newest-first, one rune per sample.
func windowGlyphs(window []probe.Outcome) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for _, outcome := range window {
		sb.WriteRune(outcomeGlyph(outcome))
	}
	sb.WriteByte(']')
	return sb.String()
}

func outcomeGlyph(outcome probe.Outcome) rune {
	switch outcome {
	case probe.OutcomeUp:
		return '.'
	case probe.OutcomeDown:
		return '#'
	case probe.OutcomePartial:
		return '~'
	case probe.OutcomeUnknown:
		return '?'
	default:
		return '_'
	}
}

func downCount(window []probe.Outcome) int {
	count := 0
	for _, outcome := range window {
		if outcome == probe.OutcomeDown {
			count++
		}
	}
	return count
}

func formatRemediation(site state.SiteStatus) string {
	if site.Remediations == 0 {
		return "no remediations"
	}
	return fmt.Sprintf("remediations %d  last %s",
		site.Remediations, site.LastRemediation.Format("15:04:05"))
}

func siteStyle(site state.SiteStatus) tcell.Style {
	down := downCount(site.Window)
	switch {
	case len(site.Window) > 0 && down == len(site.Window):
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case down > 0:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	}
}

func drawBox(screen tcell.Screen, x, y, width, height int) {
	if width < 2 || height < 2 {
		return
	}
	right := x + width - 1
	bottom := y + height - 1

	setCell(screen, x, y, '+')
	setCell(screen, right, y, '+')
	setCell(screen, x, bottom, '+')
	setCell(screen, right, bottom, '+')

	for col := x + 1; col < right; col++ {
		setCell(screen, col, y, '-')
		setCell(screen, col, bottom, '-')
	}
	for row := y + 1; row < bottom; row++ {
		setCell(screen, x, row, '|')
		setCell(screen, right, row, '|')
	}
}

func drawText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	if width <= 0 {
		return
	}
	col := x
	for _, r := range text {
		if col >= x+width {
			return
		}
		screen.SetContent(col, y, r, nil, style)
		col++
	}
}

func setCell(screen tcell.Screen, x, y int, r rune) {
	screen.SetContent(x, y, r, nil, tcell.StyleDefault)
}
