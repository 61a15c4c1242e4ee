package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/yuqie6/codepulse/internal/model"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	red    = color.New(color.FgRed)
	faint  = color.New(color.Faint)
)

func header(text string) {
	line := strings.Repeat("═", 40)
	fmt.Println(line)
	fmt.Println(text)
	fmt.Println(line)
}

func statusColor(s model.PresenceStatus) *color.Color {
	switch s {
	case model.StatusAvailable:
		return green
	case model.StatusAway:
		return yellow
	default:
		return red
	}
}

// formatSeconds 1h 23m / 5m / 42s
func formatSeconds(sec float64) string {
	d := time.Duration(math.Round(sec)) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

func relTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func printEntries(title string, entries []model.UsageEntry, limit int) {
	fmt.Printf("\n%s\n", title)
	for i, e := range entries {
		if limit > 0 && i >= limit {
			faint.Printf("  … 其余 %d 项\n", len(entries)-limit)
			break
		}
		if e.Placeholder {
			faint.Println("  （无）")
			continue
		}
		line := fmt.Sprintf("  • %-16s %8s  %5.1f%%", e.Name, formatSeconds(e.TotalSeconds), e.Percent)
		if e.LastUsed != nil {
			line += "  " + faint.Sprint(relTime(*e.LastUsed))
		}
		fmt.Println(line)
	}
}
