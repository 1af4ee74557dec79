package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

var exportNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func sampleCompany() model.Company {
	c := model.NewCompany("Circle")
	c.Description = "Circle is a stablecoin issuer."
	c.Categories = []model.Category{model.CategoryIssuer}
	c.Focus = model.FocusCryptoFirst
	c.Country = "United States"
	c.Region = "North America"
	c.Website = "https://www.circle.com"
	c.Funding = &model.FundingInfo{TotalRaised: "$1.1B", Investors: []string{"BlackRock", "Fidelity"}}
	c.Partners = []model.Partner{{Name: "Visa", Type: model.PartnerFortune500Global, Description: "USDC settlement"}}
	c.Jobs = []model.Job{
		{ID: "j1", Title: "Backend Engineer", Department: "Engineering", Locations: []string{"Remote", "NYC"}, PostedDate: exportNow.AddDate(0, -1, 0)},
		{ID: "j2", Title: "Old Role", PostedDate: exportNow.AddDate(-2, 0, 0)},
		{ID: "j3", Title: "Hidden Role", PostedDate: exportNow, Hidden: true},
	}
	c.UpdatedAt = exportNow
	return c
}

func TestWorkbook(t *testing.T) {
	f, err := Workbook([]model.Company{sampleCompany(), model.NewCompany("Paxos")}, exportNow)
	require.NoError(t, err)

	require.Len(t, f.Sheets, 3)
	companies := f.Sheet[SheetCompanies]
	require.Len(t, companies.Rows, 3)
	assert.Equal(t, "Name", companies.Rows[0].Cells[1].String())

	row := rowToStrings(companies.Rows[1])
	assert.Equal(t, "circle", row[0])
	assert.Equal(t, "Issuer", row[2])
	assert.Equal(t, "$1.1B", row[9])
	assert.Equal(t, "BlackRock, Fidelity", row[13])
	assert.Equal(t, "2025-06-15", row[15])

	paxos := rowToStrings(companies.Rows[2])
	assert.Equal(t, "", paxos[9], "no funding renders blank")

	partners := f.Sheet[SheetPartners]
	require.Len(t, partners.Rows, 2)
	assert.Equal(t, "Visa", partners.Rows[1].Cells[1].String())

	jobs := f.Sheet[SheetJobs]
	require.Len(t, jobs.Rows, 2, "stale and hidden jobs are left out")
	assert.Equal(t, "Remote; NYC", jobs.Rows[1].Cells[3].String())
}

func TestWriteXLSX_RoundTripNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.xlsx")
	require.NoError(t, WriteXLSX(path, []model.Company{sampleCompany(), model.NewCompany("Paxos")}, exportNow))

	names, err := ReadCompanyNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Circle", "Paxos"}, names)
}

func TestWriteXLSXTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSXTo(&buf, []model.Company{sampleCompany()}, exportNow))
	assert.NotZero(t, buf.Len())
}

func TestReadCompanyNames_PlainList(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	require.NoError(t, err)
	for _, name := range []string{"Bridge", "", "Agora", "bridge", "Paxos Trust Co."} {
		sheet.AddRow().AddCell().SetString(name)
	}
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, f.Save(path))

	names, err := ReadCompanyNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bridge", "Agora", "Paxos Trust Co."}, names)
}

func TestReadCompanyNames_Missing(t *testing.T) {
	_, err := ReadCompanyNames(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
