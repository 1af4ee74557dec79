// Package export renders the company directory for people outside the app:
// an XLSX workbook and a Notion database.
package export

import (
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

// Sheet names in the exported workbook.
const (
	SheetCompanies = "Companies"
	SheetPartners  = "Partners"
	SheetJobs      = "Jobs"
)

var companyHeader = []string{
	"ID", "Name", "Categories", "Focus", "Industry", "Country", "Region", "Headquarters",
	"Website", "Total Raised", "Valuation", "Last Round", "Last Round Date", "Investors",
	"Description", "Updated",
}

var partnerHeader = []string{"Company", "Partner", "Type", "Country", "Industry", "Description"}

var jobHeader = []string{"Company", "Title", "Department", "Locations", "Posted", "Salary", "URL"}

const dateLayout = "2006-01-02"

// Workbook builds the directory workbook: one row per company, plus one
// row per partner and per visible job on their own sheets.
func Workbook(companies []model.Company, now time.Time) (*xlsx.File, error) {
	f := xlsx.NewFile()

	cs, err := addSheet(f, SheetCompanies, companyHeader)
	if err != nil {
		return nil, err
	}
	ps, err := addSheet(f, SheetPartners, partnerHeader)
	if err != nil {
		return nil, err
	}
	js, err := addSheet(f, SheetJobs, jobHeader)
	if err != nil {
		return nil, err
	}

	for _, c := range companies {
		addRow(cs, companyRow(c))
		for _, p := range c.Partners {
			addRow(ps, []string{c.Name, p.Name, string(p.Type), p.Country, p.Industry, p.Description})
		}
		for _, j := range model.VisibleJobs(c.Jobs, now) {
			addRow(js, []string{c.Name, j.Title, string(j.Department), strings.Join(j.Locations, "; "),
				formatDate(j.PostedDate), j.Salary, j.URL})
		}
	}
	return f, nil
}

// WriteXLSX saves the directory workbook to path.
func WriteXLSX(path string, companies []model.Company, now time.Time) error {
	f, err := Workbook(companies, now)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "xlsx: save %s", path)
}

// WriteXLSXTo streams the directory workbook to w.
func WriteXLSXTo(w io.Writer, companies []model.Company, now time.Time) error {
	f, err := Workbook(companies, now)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "xlsx: write")
}

func companyRow(c model.Company) []string {
	cats := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		cats[i] = string(cat)
	}
	fund := c.Funding
	if fund == nil {
		fund = &model.FundingInfo{}
	}
	return []string{
		c.ID, c.Name, strings.Join(cats, ", "), string(c.Focus), c.Industry, c.Country, c.Region,
		c.Headquarters, c.Website, fund.TotalRaised, fund.Valuation, fund.LastRound,
		fund.LastRoundDate, strings.Join(fund.Investors, ", "), c.Description, formatDate(c.UpdatedAt),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func addSheet(f *xlsx.File, name string, header []string) (*xlsx.Sheet, error) {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: add sheet %s", name)
	}
	row := sheet.AddRow()
	for _, h := range header {
		cell := row.AddCell()
		cell.SetString(h)
		cell.GetStyle().Font.Bold = true
	}
	return sheet, nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// ReadCompanyNames reads company names from a workbook: the Name column of
// the Companies sheet when present, else the first column of the first
// sheet. The first row is treated as a header when it reads "Name".
func ReadCompanyNames(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, ok := f.Sheet[SheetCompanies]
	if !ok {
		if len(f.Sheets) == 0 {
			return nil, eris.Errorf("xlsx: %s has no sheets", path)
		}
		sheet = f.Sheets[0]
	}

	col := 0
	var names []string
	seen := make(map[string]bool)
	for i, row := range sheet.Rows {
		cells := rowToStrings(row)
		if i == 0 {
			if idx := indexOf(cells, "Name"); idx >= 0 {
				col = idx
				continue
			}
		}
		if col >= len(cells) {
			continue
		}
		name := strings.TrimSpace(cells[col])
		id := model.CompanyID(name)
		if name == "" || id == "" || seen[id] {
			continue
		}
		seen[id] = true
		names = append(names, name)
	}
	return names, nil
}

func indexOf(cells []string, want string) int {
	for i, c := range cells {
		if strings.EqualFold(strings.TrimSpace(c), want) {
			return i
		}
	}
	return -1
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
