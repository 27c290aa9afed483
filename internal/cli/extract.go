package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/pkg/logger"
	"github.com/yigit/resultsphere/internal/pkg/pdftable"
)

var (
	flagExtractFile    string
	flagExtractCellGap float64
	flagExtractHeader  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Print the table rows extracted from a PDF",
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&flagExtractFile, "file", "f", "", "PDF to read")
	extractCmd.Flags().Float64Var(&flagExtractCellGap, "cell-gap", pdftable.DefaultCellGap, "Horizontal gap in points that separates cells")
	extractCmd.Flags().BoolVar(&flagExtractHeader, "header", false, "Also locate the result header and report its column offset")
	_ = extractCmd.MarkFlagRequired("file")
}

type extractOutput struct {
	*pdftable.Result
	HeaderIndex  *int `json:"headerIndex,omitempty"`
	HeaderOffset *int `json:"headerOffset,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(flagExtractFile)
	if err != nil {
		return fmt.Errorf("read pdf: %w", err)
	}

	configureLogger("info")
	extractor := pdftable.NewExtractor(pdftable.Config{CellGap: flagExtractCellGap}, logger.Component("pdftable"))
	result, err := extractor.Extract(cmd.Context(), data)
	if err != nil {
		return err
	}

	out := extractOutput{Result: result}
	if flagExtractHeader {
		header, err := ingestion.LocateHeader(result.Rows)
		if err != nil {
			return err
		}
		index, offset := header.StartIndex, header.Offset()
		out.HeaderIndex = &index
		out.HeaderOffset = &offset
	}
	return printJSON(cmd.OutOrStdout(), out)
}
