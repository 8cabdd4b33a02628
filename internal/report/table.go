// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/fatih/color"
)

// maxMessage truncates messages in table rows.
const maxMessage = 80

// Printer writes human-readable reports.
type Printer struct {
	w      io.Writer
	colors map[check.Status]*color.Color
	header *color.Color
	bold   *color.Color
}

// NewPrinter returns a [Printer] writing to w. With useColor false no
// escape sequences are emitted, whatever the terminal.
func NewPrinter(w io.Writer, useColor bool) *Printer {
	p := &Printer{
		w: w,
		colors: map[check.Status]*color.Color{
			check.StatusSuccess: color.New(color.FgGreen),
			check.StatusWarning: color.New(color.FgYellow),
			check.StatusError:   color.New(color.FgRed),
		},
		// Same escape length as the status colours, so tabwriter
		// columns stay aligned.
		header: color.New(color.FgHiWhite),
		bold:   color.New(color.Bold),
	}
	for _, c := range append(p.all(), p.header, p.bold) {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) all() []*color.Color {
	out := make([]*color.Color, 0, len(p.colors))
	for _, c := range p.colors {
		out = append(out, c)
	}
	return out
}

// status pads before colouring so escape sequences do not skew columns.
func (p *Printer) status(s check.Status) string {
	label := fmt.Sprintf("%-7s", strings.ToUpper(string(s)))
	if c, ok := p.colors[s]; ok {
		return c.Sprint(label)
	}
	return label
}

// Table writes one row per outcome followed by a summary line.
func (p *Printer) Table(outcomes []check.Outcome) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tTYPE\t%s\tTIME\tMESSAGE\n", p.header.Sprintf("%-7s", "STATUS"))
	for _, o := range outcomes {
		res := o.Result
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.3fs\t%s\n",
			o.Request.ID,
			o.Request.Type,
			p.status(res.Status()),
			res.ResponseTime().Seconds(),
			truncate(res.Message(), maxMessage),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := Summarize(outcomes)
	_, err := fmt.Fprintf(p.w, "\n%d checks: %d success, %d warning, %d error\n",
		s.Total, s.Success, s.Warning, s.Error)
	return err
}

// Result writes a single result with its raw data, one key per line.
func (p *Printer) Result(checkType string, res check.Result) error {
	fmt.Fprintf(p.w, "%s  %s  %.3fs\n", p.status(res.Status()), p.bold.Sprint(checkType), res.ResponseTime().Seconds())
	fmt.Fprintf(p.w, "  %s\n", res.Message())

	raw := res.RawData()
	if raw.Len() == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, key := range raw.Keys() {
		v, _ := raw.Get(key)
		fmt.Fprintf(tw, "  %s:\t%s\n", key, formatValue(v))
	}
	return tw.Flush()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case nil:
		return "-"
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
