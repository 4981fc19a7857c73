package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"DipScan/internal/domain/models"
)

// ConsoleWriter prints the top-n summary, insights and skips.
type ConsoleWriter struct {
	out    io.Writer
	title  *color.Color
	likely *color.Color
	maybe  *color.Color
	stable *color.Color
	muted  *color.Color
}

func NewConsoleWriter(out io.Writer, noColor bool) *ConsoleWriter {
	w := &ConsoleWriter{
		out:    out,
		title:  color.New(color.FgCyan, color.Bold),
		likely: color.New(color.FgRed, color.Bold),
		maybe:  color.New(color.FgYellow),
		stable: color.New(color.FgGreen),
		muted:  color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{w.title, w.likely, w.maybe, w.stable, w.muted} {
			c.DisableColor()
		}
	}
	return w
}

func (w *ConsoleWriter) Name() string { return "console" }

func (w *ConsoleWriter) Write(_ context.Context, report *models.ScanReport) error {
	var b strings.Builder

	b.WriteString(w.title.Sprintf("📊 Scanned %d assets, %d ranked, %d skipped",
		report.Ranked.Len()+len(report.Skipped), report.Ranked.Len(), len(report.Skipped)))
	b.WriteString("\n\n")
	b.WriteString(w.title.Sprintf("🔔 TOP %d DIP SIGNALS TO WATCH:", len(report.Top)))
	b.WriteString("\n")
	if len(report.Top) == 0 {
		b.WriteString(w.muted.Sprint("  no asset had enough history"))
		b.WriteString("\n")
	}
	for _, sig := range report.Top {
		line := fmt.Sprintf("- %-15s | Dip: %s%% | Signal: %s",
			strings.ToUpper(sig.Asset.Display()), formatPct(sig.Average), sig.Signal.Label())
		b.WriteString(w.colorFor(sig.Signal).Sprint(line))
		b.WriteString("\n")
	}

	var insights []models.Insight
	for _, in := range report.Insights {
		if in.Available {
			insights = append(insights, in)
		}
	}
	if len(insights) > 0 {
		b.WriteString("\n")
		b.WriteString(w.title.Sprint("📈 Insights:"))
		b.WriteString("\n")
		for _, in := range insights {
			fmt.Fprintf(&b, "- %-15s | close %s | MA7 %s | MA30 %s | %s | vol %s%% | 30d %s%%\n",
				strings.ToUpper(in.Asset.Display()),
				formatPct(in.LastClose), formatPct(in.MA7), formatPct(in.MA30),
				in.Trend, formatPct(in.Volatility), formatPct(in.Return30d))
		}
	}

	if len(report.Profiles) > 0 {
		b.WriteString("\n")
		b.WriteString(w.title.Sprint("📉 Days below window average:"))
		b.WriteString("\n")
		for _, pr := range report.Profiles {
			fmt.Fprintf(&b, "- %-15s | avg %s | %d days below (%s%%) | %d months\n",
				strings.ToUpper(pr.Asset.Display()), formatPct(pr.PeriodAverage),
				len(pr.BelowAverage), formatPct(pr.BelowShare), len(pr.Monthly))
		}
	}

	if len(report.Skipped) > 0 {
		b.WriteString("\n")
		for _, s := range report.Skipped {
			b.WriteString(w.muted.Sprintf("skipped %s: %s", s.Asset.Ticker, s.Reason))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w.out, b.String())
	return err
}

func (w *ConsoleWriter) colorFor(s models.Signal) *color.Color {
	switch s {
	case models.SignalLikelyDip:
		return w.likely
	case models.SignalPossibleDip:
		return w.maybe
	default:
		return w.stable
	}
}
