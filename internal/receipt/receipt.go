// Package receipt renders a committed order for the customer, either as the
// data behind the HTML receipt page or as a printable PDF with a QR code of
// the order reference.
package receipt

import (
	"bytes"
	"fmt"
	"io"

	"jem-backend/internal/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

const shopName = "J.E.M Snack Bundles"

// compress is switched off in tests so the page text can be inspected.
var compress = true

type Line struct {
	Name     string
	Category string
	Quantity int
	Price    string
	Subtotal string
}

// View is the template data for the receipt page.
type View struct {
	Shop       string
	Reference  string
	Date       string
	Customer   string
	Phone      string
	PickupSpot string
	Bundle     string
	Lines      []Line
	Total      string
}

// NewView flattens an order loaded with its customer, bundle and items.
func NewView(o *models.Order) View {
	v := View{
		Shop:      shopName,
		Reference: o.Reference,
		Date:      o.CreatedAt.Format("02 Jan 2006 15:04"),
		Total:     "$" + o.TotalRevenue.StringFixed(2),
	}
	if o.Customer != nil {
		v.Customer = o.Customer.Name
		v.Phone = o.Customer.Phone
		v.PickupSpot = o.Customer.PickupSpot
	}
	if o.BundleType != nil {
		v.Bundle = o.BundleType.Name
	}
	for _, it := range o.Items {
		name := fmt.Sprintf("Item #%d", it.ItemID)
		if it.Item != nil {
			name = it.Item.Name
		}
		v.Lines = append(v.Lines, Line{
			Name:     name,
			Category: string(it.Category),
			Quantity: it.Quantity,
			Price:    "$" + it.UnitPrice.StringFixed(2),
			Subtotal: "$" + it.Subtotal().StringFixed(2),
		})
	}
	return v
}

// QR encodes the order reference as a PNG.
func QR(reference string) ([]byte, error) {
	png, err := qrcode.Encode(reference, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// WritePDF renders the receipt to w.
func WritePDF(w io.Writer, o *models.Order) error {
	v := NewView(o)
	qr, err := QR(o.Reference)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetCompression(compress)
	// The core fonts are cp1252; names arrive as UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(shopName+" receipt "+o.Reference, false)
	pdf.SetCreationDate(o.CreatedAt)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(v.Shop))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	for _, row := range [][2]string{
		{"Order", v.Reference},
		{"Date", v.Date},
		{"Customer", v.Customer},
		{"Phone", v.Phone},
		{"Pickup", v.PickupSpot},
		{"Bundle", v.Bundle},
	} {
		pdf.CellFormat(25, 6, row[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 7, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(15, 7, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(25, 7, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(25, 7, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, l := range v.Lines {
		pdf.CellFormat(60, 6, tr(l.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(15, 6, fmt.Sprint(l.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, l.Price, "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, l.Subtotal, "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(100, 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, v.Total, "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 49, pdf.GetY(), 50, 50, false, opts, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render receipt %s: %w", o.Reference, err)
	}
	return nil
}

// Filename is the download name for an order's PDF.
func Filename(o *models.Order) string {
	return fmt.Sprintf("jem-receipt-%s.pdf", o.Reference)
}
