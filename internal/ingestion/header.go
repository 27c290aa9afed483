package ingestion

import "strings"

// Header describes where the data rows start and which column layout the sheet uses.
type Header struct {
	// StartIndex is the index of the header row. Data rows are the ones after it.
	StartIndex int
	// HasSNO is true when the layout carries a leading serial-number column.
	HasSNO bool
}

// Offset is the column index of the roll number.
func (h Header) Offset() int {
	if h.HasSNO {
		return 1
	}
	return 0
}

// LocateHeader scans rows top to bottom for the first row with a cell containing
// "htno" or "subcode" (case-insensitive). Leading cover-page rows vary in number,
// so there is no fixed offset. Non-tabular rows are ignored.
func LocateHeader(rows []any) (Header, error) {
	for i, row := range rows {
		cells, ok := asCells(row)
		if !ok {
			continue
		}

		lowered := make([]string, len(cells))
		found := false
		for j, cell := range cells {
			lowered[j] = strings.ToLower(CellString(cell))
			if strings.Contains(lowered[j], "htno") || strings.Contains(lowered[j], "subcode") {
				found = true
			}
		}
		if !found {
			continue
		}

		first := lowered[0]
		return Header{
			StartIndex: i,
			HasSNO:     first == "sno" || strings.Contains(first, "serial"),
		}, nil
	}

	return Header{}, &FormatError{Reason: "no header row found"}
}
