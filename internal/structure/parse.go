package structure

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/stablecoin-intel/internal/extract"
	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/normalize"
)

// ErrUnparseable means a model reply carried none of the requested fields.
var ErrUnparseable = eris.New("structure: unparseable model output")

const maxPartnerNameLen = 60

// CompanyBlock is the parsed reply to CompanyPrompt.
type CompanyBlock struct {
	Description string
	Partners    []model.Partner
	Website     string
}

// ParseCompany parses a DESCRIPTION / PARTNERS / WEBSITE block. Malformed
// partner lines are skipped individually.
func ParseCompany(text, companyName string) (CompanyBlock, error) {
	s := ParseSections(text, LabelDescription, LabelPartners, LabelWebsite)

	var out CompanyBlock
	out.Description = cleanValue(collapseLines(s.Get(LabelDescription)))
	out.Website = normalize.SanitizeWebsite(cleanValue(firstLine(s.Get(LabelWebsite))))

	for _, line := range FilterLines(s.Get(LabelPartners)) {
		if p, ok := parsePartnerLine(line, companyName); ok {
			out.Partners = model.MergePartners(out.Partners, p)
		}
	}
	if len(out.Partners) > extract.MaxPartners {
		out.Partners = out.Partners[:extract.MaxPartners]
	}

	if out.Description == "" && len(out.Partners) == 0 && out.Website == "" {
		return out, ErrUnparseable
	}
	return out, nil
}

var partnerDashRe = regexp.MustCompile(`^(.+?)(?:\s+[-–—]|:)\s+(.+)$`)

var partnerParenRe = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)\s*[-–—:]?\s*(.*)$`)

// parsePartnerLine accepts "Name | Type | Description", "Name (Type): desc",
// "Name - desc" and "Name: desc".
func parsePartnerLine(line, companyName string) (model.Partner, bool) {
	var name, typ, desc string
	switch {
	case strings.Contains(line, "|"):
		parts := strings.Split(line, "|")
		name = parts[0]
		if len(parts) > 1 {
			typ = parts[1]
		}
		if len(parts) > 2 {
			desc = strings.Join(parts[2:], " ")
		}
	case partnerParenRe.MatchString(line):
		m := partnerParenRe.FindStringSubmatch(line)
		name, typ, desc = m[1], m[2], m[3]
	case partnerDashRe.MatchString(line):
		m := partnerDashRe.FindStringSubmatch(line)
		name, desc = m[1], m[2]
	default:
		name = line
	}

	name = cleanValue(name)
	if name == "" || len(name) > maxPartnerNameLen || len(strings.Fields(name)) > 6 {
		return model.Partner{}, false
	}
	if companyName != "" && strings.EqualFold(name, strings.TrimSpace(companyName)) {
		return model.Partner{}, false
	}

	p := model.Partner{Name: name, Description: cleanValue(desc)}
	if t, ok := parsePartnerType(typ); ok {
		p.Type = t
	} else {
		p.Type = extract.InferPartnerType(name, desc)
		if p.Description == "" {
			p.Description = cleanValue(typ)
		}
	}
	if p.Description == "" {
		p.Description = extract.BuildPartnerDescription("", companyName, name)
	}
	return p, true
}

func parsePartnerType(s string) (model.PartnerType, bool) {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch {
	case s == "":
		return "", false
	case strings.Contains(s, "fortune") || strings.Contains(s, "global") || strings.Contains(s, "enterprise"):
		return model.PartnerFortune500Global, true
	case strings.Contains(s, "investor") || strings.Contains(s, "vc") || strings.Contains(s, "backer"):
		return model.PartnerInvestor, true
	case strings.Contains(s, "crypto") || strings.Contains(s, "native"):
		return model.PartnerCryptoNative, true
	}
	return "", false
}

// ParseJobs parses a list of job blocks separated by "---". Blocks without
// a title are skipped.
func ParseJobs(text string, now time.Time) []model.Job {
	var out []model.Job
	for _, block := range SplitBlocks(text) {
		title := FieldValue(block, LabelTitle)
		if title == "" {
			continue
		}
		j := model.Job{
			ID:        uuid.NewString(),
			Title:     title,
			URL:       cleanURL(FieldValue(block, LabelURL)),
			Salary:    FieldValue(block, LabelSalary),
			Locations: splitList(FieldValue(block, LabelLocations)),
		}
		if len(j.Locations) == 0 {
			j.Locations = splitList(FieldValue(block, "LOCATION"))
		}
		j.Department = parseDepartment(FieldValue(block, LabelDepartment), title)
		j.PostedDate = ParsePostedDate(FieldValue(block, LabelPosted), now)
		out = append(out, j)
	}
	return model.MergeJobs(nil, out...)
}

// ParseJobDetail parses the reply to JobDetailPrompt.
func ParseJobDetail(text, pageURL string, now time.Time) (model.Job, error) {
	s := ParseSections(text, LabelTitle, LabelDepartment, LabelLocations, LabelSalary, LabelPosted,
		LabelDescription, LabelRequirements, LabelBenefits)

	title := cleanValue(firstLine(s.Get(LabelTitle)))
	if title == "" {
		return model.Job{}, ErrUnparseable
	}
	return model.Job{
		ID:           uuid.NewString(),
		Title:        title,
		Department:   parseDepartment(cleanValue(firstLine(s.Get(LabelDepartment))), title),
		Locations:    splitList(cleanValue(firstLine(s.Get(LabelLocations)))),
		PostedDate:   ParsePostedDate(cleanValue(firstLine(s.Get(LabelPosted))), now),
		URL:          pageURL,
		Salary:       cleanValue(firstLine(s.Get(LabelSalary))),
		Description:  cleanValue(collapseLines(s.Get(LabelDescription))),
		Requirements: FilterLines(s.Get(LabelRequirements)),
		Benefits:     FilterLines(s.Get(LabelBenefits)),
	}, nil
}

var departments = map[string]model.Department{
	"strategy":             model.DepartmentStrategy,
	"customer success":     model.DepartmentCustomerSuccess,
	"business dev":         model.DepartmentBusinessDev,
	"business development": model.DepartmentBusinessDev,
	"partnerships":         model.DepartmentPartnerships,
	"other":                model.DepartmentOther,
}

func parseDepartment(raw, title string) model.Department {
	if d, ok := departments[strings.ToLower(strings.TrimSpace(raw))]; ok && d != model.DepartmentOther {
		return d
	}
	return extract.ClassifyDepartment(title)
}

var relativeDateRe = regexp.MustCompile(`(?i)^(\d+|an?|one)\s+(hour|day|week|month)s?\s+ago$`)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"01/02/2006",
	"January 2006",
	"Jan 2006",
}

// ParsePostedDate reads an absolute or relative ("3 days ago") date. It
// returns the zero time when s is unknown.
func ParsePostedDate(s string, now time.Time) time.Time {
	s = cleanValue(s)
	if s == "" {
		return time.Time{}
	}
	switch strings.ToLower(s) {
	case "today", "just posted":
		return now
	case "yesterday":
		return now.AddDate(0, 0, -1)
	}
	if m := relativeDateRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			n = 1
		}
		switch strings.ToLower(m[2]) {
		case "hour":
			return now.Add(-time.Duration(n) * time.Hour)
		case "day":
			return now.AddDate(0, 0, -n)
		case "week":
			return now.AddDate(0, 0, -7*n)
		case "month":
			return now.AddDate(0, -n, 0)
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseFunding parses the reply to FundingPrompt. Returns nil when no
// field carries a value.
func ParseFunding(text string) *model.FundingInfo {
	f := &model.FundingInfo{
		TotalRaised:   formatAmount(FieldValue(text, LabelTotalRaised)),
		Valuation:     formatAmount(FieldValue(text, LabelValuation)),
		LastRound:     FieldValue(text, LabelLastRound),
		LastRoundDate: FieldValue(text, LabelLastRoundDate),
		Investors:     splitList(FieldValue(text, LabelInvestors)),
	}
	if f.IsEmpty() {
		return nil
	}
	return f
}

func formatAmount(s string) string {
	if s == "" {
		return ""
	}
	if _, ok := normalize.ParseAmount(s); !ok {
		return ""
	}
	return normalize.FormatFinancialAmount(s)
}

// PortfolioEntry is one company named in an investor portfolio reply.
type PortfolioEntry struct {
	Name        string
	Category    model.Category
	Description string
	Website     string
}

// ParsePortfolio parses the reply to PortfolioPrompt. When the PORTFOLIO
// label is missing the whole reply is treated as the list.
func ParsePortfolio(text, investorName string) []PortfolioEntry {
	body := ParseSections(text, LabelPortfolio).Get(LabelPortfolio)
	if body == "" {
		body = text
	}

	seen := make(map[string]bool)
	var out []PortfolioEntry
	for _, line := range FilterLines(body) {
		parts := strings.Split(line, "|")
		name := cleanValue(parts[0])
		if name == "" || len(name) > maxPartnerNameLen || strings.EqualFold(name, investorName) {
			continue
		}
		key := model.CompanyID(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		e := PortfolioEntry{Name: name}
		if len(parts) > 1 {
			e.Category, _ = ParseCategory(parts[1])
		}
		if len(parts) > 2 {
			e.Description = cleanValue(parts[2])
		}
		if len(parts) > 3 {
			e.Website = normalize.SanitizeWebsite(cleanValue(parts[3]))
		}
		out = append(out, e)
	}
	return out
}

// ParseCategory matches s against the category names case-insensitively.
func ParseCategory(s string) (model.Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range model.AllCategories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

var listSepRe = regexp.MustCompile(`\s*[,;]\s*|\s+and\s+`)

func splitList(s string) []string {
	s = cleanValue(s)
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range listSepRe.Split(s, -1) {
		if part = cleanValue(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func cleanURL(s string) string {
	s = strings.Trim(s, "<>()[] ")
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return ""
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func collapseLines(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
