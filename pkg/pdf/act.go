// Package pdf формирует PDF-документы (акт показа объектов).
package pdf

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
)

// ActDocument - содержимое акта, уже подготовленное к печати.
type ActDocument struct {
	Title   string
	Header  []string
	Columns []string
	Widths  []float64
	Rows    [][]string
	Footer  []string
}

type ActRenderer struct {
	fontPath string
}

// NewActRenderer: fontPath - TTF со шрифтом, содержащим кириллицу. Пустой путь - встроенный Helvetica.
func NewActRenderer(fontPath string) *ActRenderer {
	return &ActRenderer{fontPath: fontPath}
}

func (r *ActRenderer) newDocument() (*fpdf.Fpdf, string, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	if r.fontPath == "" {
		return doc, "Helvetica", nil
	}
	if _, err := os.Stat(r.fontPath); err != nil {
		return nil, "", fmt.Errorf("шрифт для PDF недоступен: %w", err)
	}
	doc.AddUTF8Font("Act", "", r.fontPath)
	doc.AddUTF8Font("Act", "B", r.fontPath)
	return doc, "Act", nil
}

func (r *ActRenderer) Render(act ActDocument) ([]byte, error) {
	doc, font, err := r.newDocument()
	if err != nil {
		return nil, err
	}
	doc.SetMargins(15, 15, 15)
	doc.AddPage()

	doc.SetFont(font, "B", 14)
	doc.CellFormat(0, 10, act.Title, "", 1, "C", false, 0, "")
	doc.Ln(2)

	doc.SetFont(font, "", 10)
	for _, line := range act.Header {
		doc.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	widths := act.Widths
	if len(widths) != len(act.Columns) {
		widths = make([]float64, len(act.Columns))
		for i := range widths {
			widths[i] = 180 / float64(len(act.Columns))
		}
	}

	doc.SetFont(font, "B", 9)
	for i, col := range act.Columns {
		doc.CellFormat(widths[i], 7, col, "1", 0, "C", false, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont(font, "", 9)
	for _, row := range act.Rows {
		for i := range act.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			doc.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		doc.Ln(-1)
	}

	doc.Ln(8)
	doc.SetFont(font, "", 10)
	for _, line := range act.Footer {
		doc.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("формирование PDF: %w", err)
	}
	return buf.Bytes(), nil
}
