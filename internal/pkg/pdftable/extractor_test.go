package pdftable

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCells(t *testing.T) {
	tests := []struct {
		name  string
		spans []Span
		gap   float64
		want  []string
	}{
		{
			name:  "no runs",
			spans: nil,
			gap:   DefaultCellGap,
			want:  nil,
		},
		{
			name:  "touching runs form one word",
			spans: []Span{{X: 0, W: 5, S: "H"}, {X: 5, W: 5, S: "T"}, {X: 10, W: 5, S: "NO"}},
			gap:   DefaultCellGap,
			want:  []string{"HTNO"},
		},
		{
			name:  "small gap joins words with a space",
			spans: []Span{{X: 0, W: 20, S: "Data"}, {X: 23, W: 30, S: "Structures"}},
			gap:   DefaultCellGap,
			want:  []string{"Data Structures"},
		},
		{
			name:  "gap equal to the threshold stays in the cell",
			spans: []Span{{X: 0, W: 5, S: "A"}, {X: 11, W: 5, S: "B"}},
			gap:   6,
			want:  []string{"A B"},
		},
		{
			name:  "wide gap starts a new cell",
			spans: []Span{{X: 0, W: 15, S: "SNO"}, {X: 30, W: 20, S: "HTNO"}, {X: 80, W: 30, S: "SUBCODE"}},
			gap:   DefaultCellGap,
			want:  []string{"SNO", "HTNO", "SUBCODE"},
		},
		{
			name:  "runs are ordered left to right",
			spans: []Span{{X: 80, W: 30, S: "SUBCODE"}, {X: 0, W: 15, S: "SNO"}, {X: 30, W: 20, S: "HTNO"}},
			gap:   DefaultCellGap,
			want:  []string{"SNO", "HTNO", "SUBCODE"},
		},
		{
			name:  "blank cells are dropped",
			spans: []Span{{X: 0, W: 3, S: " "}, {X: 20, W: 5, S: "A"}, {X: 40, W: 3, S: "  "}},
			gap:   DefaultCellGap,
			want:  []string{"A"},
		},
		{
			name:  "zero width estimated from font size",
			spans: []Span{{X: 0, FontSize: 10, S: "AB"}, {X: 12, FontSize: 10, S: "C"}, {X: 30, FontSize: 10, S: "D"}},
			gap:   DefaultCellGap,
			want:  []string{"AB C", "D"},
		},
		{
			name:  "overlapping run does not pull the cell edge back",
			spans: []Span{{X: 0, W: 40, S: "20HN1A0501"}, {X: 10, W: 5, S: "x"}, {X: 44, W: 5, S: "y"}},
			gap:   DefaultCellGap,
			want:  []string{"20HN1A0501x y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitCells(tt.spans, tt.gap))
		})
	}
}

func TestSplitCellsDoesNotReorderInput(t *testing.T) {
	spans := []Span{{X: 50, W: 5, S: "B"}, {X: 0, W: 5, S: "A"}}
	SplitCells(spans, DefaultCellGap)
	assert.Equal(t, "B", spans[0].S)
}

func TestSpanEnd(t *testing.T) {
	assert.Equal(t, 15.0, Span{X: 5, W: 10, S: "abc"}.end())
	assert.Equal(t, 20.0, Span{X: 5, FontSize: 10, S: "abc"}.end())
	assert.Equal(t, 5.0, Span{X: 5, S: "abc"}.end())
}

func TestNewExtractorDefaultsCellGap(t *testing.T) {
	assert.Equal(t, DefaultCellGap, NewExtractor(Config{}, zerolog.Nop()).cellGap)
	assert.Equal(t, DefaultCellGap, NewExtractor(Config{CellGap: -1}, zerolog.Nop()).cellGap)
	assert.Equal(t, 9.5, NewExtractor(Config{CellGap: 9.5}, zerolog.Nop()).cellGap)
}

func TestExtractRejectsBadInput(t *testing.T) {
	extractor := NewExtractor(Config{}, zerolog.Nop())

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "empty", data: nil, wantErr: ErrEmptyDocument},
		{name: "not a pdf", data: []byte("HTNO,SUBCODE\n20HN1A0501,R20CS101\n"), wantErr: ErrUnreadable},
		{name: "truncated pdf", data: []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\n"), wantErr: ErrUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := extractor.Extract(context.Background(), tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
		})
	}
}

func TestRecoverUnreadable(t *testing.T) {
	read := func() (err error) {
		defer recoverUnreadable(&err)
		var page map[string]int
		page["kids"]++
		return nil
	}

	err := read()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadable)

	clean := func() (err error) {
		defer recoverUnreadable(&err)
		return nil
	}
	assert.NoError(t, clean())
}
