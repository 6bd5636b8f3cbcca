package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSuggestions = "Suggestions"
	sheetSubmissions = "Submissions"
	sheetAnomalies   = "Anomalies"
)

// WriteXLSX writes the report as a workbook with one sheet per section
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSuggestions); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	suggestions := make([][]interface{}, 0, len(r.Rows))
	for _, row := range r.Rows {
		suggestions = append(suggestions, []interface{}{
			row.Supplier,
			row.SKU,
			string(row.Tier),
			row.DemandWindowQty.InexactFloat64(),
			row.DailyRate.Round(4).InexactFloat64(),
			row.StockOnHand.InexactFloat64(),
			row.formatCoverage(),
			row.OpenOrderQty.InexactFloat64(),
			row.SuggestedQty,
		})
	}
	if err := writeSheet(f, sheetSuggestions, header, Columns, suggestions); err != nil {
		return err
	}

	submissions := make([][]interface{}, 0, len(r.Submissions))
	for _, s := range r.Submissions {
		submissions = append(submissions, []interface{}{
			s.Supplier, s.SupplierID, s.Lines, s.Units, s.Total.InexactFloat64(),
			string(s.Status), s.OrderID, s.ErrorKind, s.Error,
		})
	}
	if _, err := f.NewSheet(sheetSubmissions); err != nil {
		return err
	}
	submissionHeader := []string{"Supplier", "SupplierID", "Lines", "Units", "Total", "Status", "OrderID", "ErrorKind", "Error"}
	if err := writeSheet(f, sheetSubmissions, header, submissionHeader, submissions); err != nil {
		return err
	}

	var anomalies [][]interface{}
	for _, sku := range r.Anomalies.UnmappedSKUs {
		anomalies = append(anomalies, []interface{}{"unmapped_sku", sku})
	}
	for _, sku := range r.Anomalies.UnknownSupplierSKUs {
		anomalies = append(anomalies, []interface{}{"unknown_supplier", sku})
	}
	for _, sku := range r.Anomalies.MissingProductSKUs {
		anomalies = append(anomalies, []interface{}{"missing_product", sku})
	}
	if r.Anomalies.OpenOrderFallbacks > 0 {
		anomalies = append(anomalies, []interface{}{"open_order_fallbacks", r.Anomalies.OpenOrderFallbacks})
	}
	if _, err := f.NewSheet(sheetAnomalies); err != nil {
		return err
	}
	if err := writeSheet(f, sheetAnomalies, header, []string{"Kind", "Detail"}, anomalies); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []string, rows [][]interface{}) error {
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
