package export

import (
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"boshamlan-scraper/internal/office"
	"boshamlan-scraper/internal/scraper"
	pkgerrors "boshamlan-scraper/pkg/errors"
)

var listingHeader = []interface{}{
	"title", "price", "relative_date", "date_published", "is_featured",
	"description", "image_url", "image_s3_path", "link", "mobile_number",
	"views_number",
}

// Published dates keep their UTC offset so the partition day stays
// unambiguous for downstream loads.
const dateLayout = time.RFC3339

// WriteCategory writes one category workbook to path: one sheet per
// subcategory in catalog order. Subcategories with no admitted records
// still get a header-only sheet so the daily artifact set is stable.
// imagePaths maps a record's source image URL to its stored object URI.
func WriteCategory(path string, result scraper.CategoryResult, imagePaths map[string]string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sub := range result.Subcategories {
		sheet := sheetName(sub.Name, i)
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return pkgerrors.NewExportWrite(result.Name, "sheet "+sheet, err)
			}
		}

		if err := f.SetSheetRow(sheet, "A1", &listingHeader); err != nil {
			return pkgerrors.NewExportWrite(result.Name, "header "+sheet, err)
		}

		for rowIdx, record := range sub.Records {
			row := listingRow(record, imagePaths)
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
			if err != nil {
				return pkgerrors.NewExportWrite(result.Name, "row coordinates", err)
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return pkgerrors.NewExportWrite(result.Name, "row "+sheet, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return pkgerrors.NewExportWrite(result.Name, "save "+path, err)
	}
	return nil
}

func listingRow(record *scraper.ListingRecord, imagePaths map[string]string) []interface{} {
	published := ""
	if !record.PublishedAt.IsZero() {
		published = record.PublishedAt.Format(dateLayout)
	}
	return []interface{}{
		record.Title,
		record.Price,
		record.RelativeDate,
		published,
		record.IsFeatured,
		record.Description,
		record.ImageURL,
		imagePaths[record.ImageURL],
		record.DetailURL,
		record.Contact,
		record.ViewCount,
	}
}

var officeInfoHeader = []interface{}{
	"office_name", "description", "phone", "email", "url", "image_url",
	"instagram", "website", "listings_count",
}

var officeMainHeader = []interface{}{
	"title", "address", "price", "description", "image_url", "link",
	"views_number", "date_published",
}

// WriteOffice writes one office workbook to path: an info sheet with the
// office metadata and a main sheet with its admitted listings.
func WriteOffice(path string, o office.Office, listings []office.Listing) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "info")
	if _, err := f.NewSheet("main"); err != nil {
		return pkgerrors.NewExportWrite("offices", "sheet main", err)
	}

	if err := f.SetSheetRow("info", "A1", &officeInfoHeader); err != nil {
		return pkgerrors.NewExportWrite("offices", "info header", err)
	}
	infoRow := []interface{}{
		o.Name, o.Description, o.Phone, o.Email, o.URL, o.ImageURL,
		o.Instagram, o.Website, o.ListingCount,
	}
	if err := f.SetSheetRow("info", "A2", &infoRow); err != nil {
		return pkgerrors.NewExportWrite("offices", "info row", err)
	}

	if err := f.SetSheetRow("main", "A1", &officeMainHeader); err != nil {
		return pkgerrors.NewExportWrite("offices", "main header", err)
	}
	for i, l := range listings {
		published := ""
		if !l.PublishedAt.IsZero() {
			published = l.PublishedAt.Format(dateLayout)
		}
		row := []interface{}{l.Title, l.Address, l.Price, l.Description, l.ImageURL, l.DetailURL, l.Views, published}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return pkgerrors.NewExportWrite("offices", "row coordinates", err)
		}
		if err := f.SetSheetRow("main", cell, &row); err != nil {
			return pkgerrors.NewExportWrite("offices", "main row", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return pkgerrors.NewExportWrite("offices", "save "+path, err)
	}
	return nil
}

// sheetName clamps a subcategory name to the 31-character sheet limit and
// strips the characters the format forbids. An empty result falls back to
// an indexed name.
func sheetName(name string, index int) string {
	cleaned := strings.NewReplacer(":", "", "\\", "", "/", "", "?", "", "*", "", "[", "", "]", "").Replace(name)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		cleaned = "sheet" + string(rune('A'+index%26))
	}
	runes := []rune(cleaned)
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}
