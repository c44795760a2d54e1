// Package report renders the notification log as an xlsx workbook for the
// «Выгрузить отчеты» menu.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"vols-bot/internal/models"
)

const sheetName = "Уведомления"

var headers = []string{
	"Дата", "Филиал", "РЭС", "ТП", "ВЛ",
	"Отправитель", "Получатели", "Координаты", "Комментарий", "Фото",
}

var colWidths = []float64{20, 22, 22, 16, 24, 22, 30, 22, 40, 8}

// FilterByBranch keeps the records of one branch. An empty or "Все"/"All"
// scope passes everything through.
func FilterByBranch(records []models.NotificationRecord, branch string) []models.NotificationRecord {
	branch = strings.TrimSpace(branch)
	if branch == "" || branch == "Все" || branch == "All" {
		return records
	}
	var out []models.NotificationRecord
	for _, r := range records {
		if r.Branch == branch {
			out = append(out, r)
		}
	}
	return out
}

// Build renders the records into a styled workbook and returns its bytes.
func Build(records []models.NotificationRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return nil, err
	}

	for idx, rec := range records {
		photo := "нет"
		if rec.HasPhoto {
			photo = "да"
		}
		values := []string{
			rec.CreatedAt,
			rec.Branch,
			rec.District,
			rec.Substation,
			rec.PowerLine,
			rec.SenderName,
			strings.Join(rec.RecipientNames, "; "),
			strconv.FormatFloat(rec.Latitude, 'f', 6, 64) + ", " + strconv.FormatFloat(rec.Longitude, 'f', 6, 64),
			rec.Comment,
			photo,
		}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, idx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	for i, w := range colWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
