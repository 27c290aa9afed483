// Package pdftable turns a tabular PDF into rows of text cells.
package pdftable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
)

var (
	// ErrEmptyDocument is returned for a zero-length upload.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrUnreadable is returned when neither PDF reader can open the document.
	ErrUnreadable = errors.New("document is not a readable PDF")
)

// DefaultCellGap is the horizontal gap, in points, that separates two cells.
const DefaultCellGap = 6.0

// wordGap is the gap above which two runs inside one cell are joined with a space.
const wordGap = 1.0

func init() {
	api.DisableConfigDir()
}

// Config controls cell detection.
type Config struct {
	CellGap float64
}

// DebugInfo describes what the extractor saw.
type DebugInfo struct {
	Pages      int    `json:"pages"`
	EmptyPages int    `json:"emptyPages"`
	Rows       int    `json:"rows"`
	Validation string `json:"validation,omitempty"`
}

// Result holds the extracted rows. Every row is a []any of strings.
type Result struct {
	Rows  []any     `json:"rows"`
	Debug DebugInfo `json:"debug"`
}

// Extractor reads grade-sheet tables out of PDF documents.
type Extractor struct {
	cellGap float64
	logger  zerolog.Logger
}

// NewExtractor creates an Extractor
func NewExtractor(cfg Config, logger zerolog.Logger) *Extractor {
	gap := cfg.CellGap
	if gap <= 0 {
		gap = DefaultCellGap
	}
	return &Extractor{cellGap: gap, logger: logger}
}

// Extract validates the document and returns its rows top to bottom, page by page.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	res := &Result{}
	pages, err := e.validate(data)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Structural PDF validation failed, trying text extraction anyway")
		res.Debug.Validation = err.Error()
	}

	rows, debug, err := e.readRows(ctx, data)
	if err != nil {
		return nil, err
	}
	res.Rows = rows
	res.Debug.Pages = debug.Pages
	res.Debug.EmptyPages = debug.EmptyPages
	res.Debug.Rows = len(rows)
	if pages > 0 && pages != debug.Pages {
		e.logger.Debug().Int("pdfcpuPages", pages).Int("readerPages", debug.Pages).Msg("Page count mismatch between readers")
	}
	return res, nil
}

// validate reads the cross-reference structure with pdfcpu in relaxed mode and reports the page count.
func (e *Extractor) validate(data []byte) (pages int, err error) {
	defer recoverUnreadable(&err)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("read pdf structure: %w", err)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return pctx.PageCount, nil
}

func (e *Extractor) readRows(ctx context.Context, data []byte) (rows []any, debug DebugInfo, err error) {
	// The text reader panics on some malformed streams.
	defer recoverUnreadable(&err)

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, debug, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	debug.Pages = reader.NumPage()
	for i := 1; i <= debug.Pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, debug, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			debug.EmptyPages++
			continue
		}

		textRows, err := page.GetTextByRow()
		if err != nil {
			e.logger.Warn().Err(err).Int("page", i).Msg("Failed to read text rows, skipping page")
			debug.EmptyPages++
			continue
		}

		for _, row := range textRows {
			spans := make([]Span, 0, len(row.Content))
			for _, t := range row.Content {
				spans = append(spans, Span{X: t.X, W: t.W, FontSize: t.FontSize, S: t.S})
			}
			cells := SplitCells(spans, e.cellGap)
			if len(cells) == 0 {
				continue
			}
			out := make([]any, len(cells))
			for j, c := range cells {
				out[j] = c
			}
			rows = append(rows, out)
		}
	}
	return rows, debug, nil
}

// recoverUnreadable turns a reader panic into ErrUnreadable. It must be deferred directly.
func recoverUnreadable(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrUnreadable, r)
	}
}

// Span is one positioned text run on a row.
type Span struct {
	X        float64
	W        float64
	FontSize float64
	S        string
}

func (s Span) end() float64 {
	if s.W > 0 {
		return s.X + s.W
	}
	// Some fonts report no advance width; estimate half an em per rune.
	return s.X + float64(len([]rune(s.S)))*s.FontSize*0.5
}

// SplitCells orders the runs of one row left to right and starts a new cell wherever
// the gap to the previous run exceeds cellGap. Blank cells are dropped.
func SplitCells(spans []Span, cellGap float64) []string {
	if len(spans) == 0 {
		return nil
	}
	sorted := append([]Span(nil), spans...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []string
	var current strings.Builder
	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			cells = append(cells, text)
		}
		current.Reset()
	}

	prevEnd := sorted[0].X
	for i, s := range sorted {
		gap := s.X - prevEnd
		if i > 0 && gap > cellGap {
			flush()
		} else if i > 0 && gap > wordGap {
			current.WriteByte(' ')
		}
		current.WriteString(s.S)
		if end := s.end(); end > prevEnd || i == 0 {
			prevEnd = end
		}
	}
	flush()
	return cells
}
