package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/todoq/pkg/facet"
	"github.com/vanderheijden86/todoq/pkg/query"
)

// ChartOptions controls facet chart export.
type ChartOptions struct {
	Path      string          // Output path; format inferred from extension when Format empty
	Format    string          // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title     string          // Optional title rendered in the header
	Dimension query.Dimension // Dimension the facets were aggregated over
	Facets    []facet.Facet
	Summary   facet.Summary
}

// SaveFacetChart renders facets as a horizontal bar chart (SVG or PNG).
func SaveFacetChart(opts ChartOptions) error {
	if len(opts.Facets) == 0 {
		return fmt.Errorf("no facets to export")
	}

	format, path, err := resolveFormat(opts.Format, opts.Path)
	if err != nil {
		return err
	}
	opts.Path = path

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildChartLayout(opts)

	switch format {
	case "svg":
		f, err := os.Create(opts.Path)
		if err != nil {
			return err
		}
		if err := renderChartSVG(f, layout); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return renderChartPNG(layout).SavePNG(opts.Path)
	}
}

func resolveFormat(format, path string) (string, string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if path != "" && filepath.Ext(path) == "" {
				path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	return format, path, nil
}

// --- layout ----------------------------------------------------------------

type chartBar struct {
	Label string
	Count int
	Y     float64
	W     float64 // bar width in px
	None  bool
}

type chartLayout struct {
	Title     string
	Subtitle  string
	Dimension query.Dimension
	Bars      []chartBar
	Width     int
	Height    int
	Header    float64
	LabelW    float64
	BarH      float64
	MaxCount  int
}

const (
	chartPadding = 32.0
	chartHeader  = 96.0
	chartRowH    = 26.0
	chartBarH    = 18.0
	chartBarMax  = 420.0
	chartCharW   = 7.0 // basicfont.Face7x13 advance
)

func buildChartLayout(opts ChartOptions) chartLayout {
	maxCount := 0
	maxLabel := 0
	for _, f := range opts.Facets {
		if f.Count > maxCount {
			maxCount = f.Count
		}
		if n := len([]rune(f.Label)); n > maxLabel {
			maxLabel = n
		}
	}
	if maxLabel > 32 {
		maxLabel = 32
	}
	labelW := float64(maxLabel)*chartCharW + 16

	bars := make([]chartBar, 0, len(opts.Facets))
	for i, f := range opts.Facets {
		w := 0.0
		if maxCount > 0 {
			w = chartBarMax * float64(f.Count) / float64(maxCount)
		}
		bars = append(bars, chartBar{
			Label: truncate(f.Label, 32),
			Count: f.Count,
			Y:     chartPadding + chartHeader + float64(i)*chartRowH,
			W:     w,
			None:  f.Key.None,
		})
	}

	width := int(chartPadding*2 + labelW + chartBarMax + 60)
	if width < 480 {
		width = 480
	}
	height := int(chartPadding*2 + chartHeader + float64(len(bars))*chartRowH)
	if height < 200 {
		height = 200
	}

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Tasks by " + opts.Dimension.String()
	}
	s := opts.Summary
	return chartLayout{
		Title:     title,
		Subtitle:  fmt.Sprintf("total: %d  pending: %d  done: %d  overdue: %d", s.Total, s.Pending, s.Completed, s.Overdue),
		Dimension: opts.Dimension,
		Bars:      bars,
		Width:     width,
		Height:    height,
		Header:    chartHeader,
		LabelW:    labelW,
		BarH:      chartBarH,
		MaxCount:  maxCount,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// --- rendering -------------------------------------------------------------

var (
	colorProject  = color.RGBA{0x90, 0xca, 0xf9, 0xff}
	colorContext  = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorPriority = color.RGBA{0xff, 0xe0, 0x82, 0xff}
	colorDue      = color.RGBA{0xff, 0xcd, 0xd2, 0xff}
	colorNone     = color.RGBA{0xcf, 0xd8, 0xdc, 0xff}
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
)

func barColor(d query.Dimension, none bool) color.RGBA {
	if none {
		return colorNone
	}
	switch d {
	case query.Context:
		return colorContext
	case query.Priority:
		return colorPriority
	case query.Due:
		return colorDue
	default:
		return colorProject
	}
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func renderChartPNG(layout chartLayout) *gg.Context {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, layout.Header-16, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Title, chartPadding, 44, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(layout.Subtitle, chartPadding, 68, 0, 0.5)

	barX := chartPadding + layout.LabelW
	for _, b := range layout.Bars {
		mid := b.Y + layout.BarH/2
		dc.SetColor(colorText)
		dc.DrawStringAnchored(b.Label, barX-8, mid, 1, 0.5)

		if b.W > 0 {
			dc.SetColor(barColor(layout.Dimension, b.None))
			dc.DrawRoundedRectangle(barX, b.Y, b.W, layout.BarH, 3)
			dc.Fill()
			dc.SetColor(colorStroke)
			dc.SetLineWidth(1)
			dc.DrawRoundedRectangle(barX, b.Y, b.W, layout.BarH, 3)
			dc.Stroke()
		}

		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(fmt.Sprintf("%d", b.Count), barX+b.W+8, mid, 0, 0.5)
	}
	return dc
}

func renderChartSVG(w io.Writer, layout chartLayout) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, layout.Width-32, int(layout.Header-16), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	canvas.Text(int(chartPadding), 48, layout.Title,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(int(chartPadding), 72, layout.Subtitle,
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))

	barX := int(chartPadding + layout.LabelW)
	for _, b := range layout.Bars {
		y := int(b.Y)
		textY := y + int(layout.BarH) - 4
		canvas.Text(barX-8, textY, b.Label,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;text-anchor:end", css(colorText)))
		if b.W > 0 {
			canvas.Roundrect(barX, y, int(b.W), int(layout.BarH), 3, 3,
				fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(barColor(layout.Dimension, b.None)), css(colorStroke)))
		}
		canvas.Text(barX+int(b.W)+8, textY, fmt.Sprintf("%d", b.Count),
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}
