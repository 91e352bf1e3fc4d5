package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/nilantra/furniture-api/internal/model"
)

const (
	SheetName   = "Products"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeLayout  = "2006-01-02 15:04:05"
)

var catalogHeaders = []string{
	"ID", "Name", "Slug", "Main Category", "Sub Category", "Price", "Offer Price",
	"Stock", "Material", "Colors", "Featured", "Best Seller", "Active", "Vendor",
	"Created At", "Updated At",
}

// WriteCatalog writes the products as a single-sheet workbook.
func WriteCatalog(w io.Writer, products []model.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range catalogHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID.String())
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Slug)
		row.AddCell().SetString(p.MainCategory)
		row.AddCell().SetString(p.SubCategory)
		row.AddCell().SetString(p.Price.StringFixed(2))
		if p.HasOffer() {
			row.AddCell().SetString(p.OfferPrice.Decimal.StringFixed(2))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetString(p.Material)
		row.AddCell().SetString(strings.Join(p.Colors, ", "))
		row.AddCell().SetBool(p.IsFeatured)
		row.AddCell().SetBool(p.IsBestSeller)
		row.AddCell().SetBool(p.IsActive)
		row.AddCell().SetString(p.VendorID.String())
		row.AddCell().SetString(p.CreatedAt.Format(timeLayout))
		row.AddCell().SetString(p.UpdatedAt.Format(timeLayout))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
