package invoice

import (
	"fmt"
	"io"
	"strconv"

	"inventrobil-pos/internal/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02 15:04"

// Line is one row of the item table.
type Line struct {
	Name      string
	UnitPrice string
	Quantity  int
	LineTotal string
}

// Document is the printable projection of a sale. Every amount is preformatted
// from the values stored on the sale; nothing is recomputed from live products.
type Document struct {
	Title     string
	InvoiceNo string
	Date      string
	Cashier   string
	Lines     []Line

	Subtotal       string
	DiscountLabel  string
	DiscountAmount string
	GSTLabel       string
	GSTAmount      string
	GrandTotal     string
}

// Build projects sale into a Document. It only reads sale.
func Build(storeName string, sale *models.Sale) Document {
	doc := Document{
		Title:          storeName + " - Tax Invoice",
		InvoiceNo:      strconv.FormatInt(sale.Number, 10),
		Date:           sale.CreatedAt.Format(dateLayout),
		Cashier:        sale.CreatedBy,
		Lines:          make([]Line, 0, len(sale.Items)),
		Subtotal:       money(sale.Subtotal),
		DiscountLabel:  fmt.Sprintf("Discount (%s%%)", sale.DiscountPercent.String()),
		DiscountAmount: "-" + money(sale.DiscountAmount),
		GSTLabel:       fmt.Sprintf("GST (%s%%)", sale.GSTRate.String()),
		GSTAmount:      money(sale.GSTAmount),
		GrandTotal:     money(sale.Total),
	}
	for _, item := range sale.Items {
		doc.Lines = append(doc.Lines, Line{
			Name:      item.ProductName,
			UnitPrice: money(item.UnitPrice),
			Quantity:  item.Quantity,
			LineTotal: money(item.LineTotal),
		})
	}
	return doc
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// WritePDF lays the document out on one A4 page (more if the item table runs long).
func WritePDF(w io.Writer, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, "Invoice #: "+doc.InvoiceNo, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Date: "+doc.Date, "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 7, tr("Cashier: "+doc.Cashier), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Item table
	widths := []float64{90, 35, 25, 40}
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Item", "Unit Price", "Qty", "Line Total"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 11)
	for _, l := range doc.Lines {
		pdf.CellFormat(widths[0], 8, tr(l.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, l.UnitPrice, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 8, strconv.Itoa(l.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 8, l.LineTotal, "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals
	labelW, valueW := 150.0, 40.0
	totalRow := func(label, value string) {
		pdf.CellFormat(labelW, 7, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(valueW, 7, value, "", 1, "R", false, 0, "")
	}
	totalRow("Subtotal", doc.Subtotal)
	totalRow(doc.DiscountLabel, doc.DiscountAmount)
	totalRow(doc.GSTLabel, doc.GSTAmount)

	pdf.SetFont("Arial", "BU", 13)
	pdf.CellFormat(labelW, 9, "Grand Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(valueW, 9, doc.GrandTotal, "T", 1, "R", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "Thank you for your purchase.", "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

// Render builds the document and writes it as PDF.
func Render(w io.Writer, storeName string, sale *models.Sale) error {
	return WritePDF(w, Build(storeName, sale))
}
