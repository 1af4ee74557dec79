package structure

import (
	"fmt"
	"strings"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

// Section labels shared by prompts and parsers.
const (
	LabelDescription   = "DESCRIPTION"
	LabelPartners      = "PARTNERS"
	LabelWebsite       = "WEBSITE"
	LabelTitle         = "TITLE"
	LabelDepartment    = "DEPARTMENT"
	LabelLocations     = "LOCATIONS"
	LabelURL           = "URL"
	LabelPosted        = "POSTED"
	LabelSalary        = "SALARY"
	LabelRequirements  = "REQUIREMENTS"
	LabelBenefits      = "BENEFITS"
	LabelTotalRaised   = "TOTAL_RAISED"
	LabelValuation     = "VALUATION"
	LabelLastRound     = "LAST_ROUND"
	LabelLastRoundDate = "LAST_ROUND_DATE"
	LabelInvestors     = "INVESTORS"
	LabelPortfolio     = "PORTFOLIO"
)

// MaxContextChars bounds the search or page text embedded in one prompt.
const MaxContextChars = 12000

// SystemPrompt is the shared system instruction for every structuring call.
const SystemPrompt = `You are a research analyst covering stablecoins, digital asset infrastructure and the banks, payment networks and investors around them.

Rules:
- Answer ONLY from the provided sources
- Follow the requested output format exactly, with each label at the start of its own line
- Write "Unknown" for any field the sources do not support
- Never name individual executives or employees
- Do not add commentary before or after the requested block`

// CompanyPrompt asks for a description, partner list and website.
func CompanyPrompt(companyName, context string) string {
	return fmt.Sprintf(`Research the company %q using the sources below.

Return exactly this block:

%s: two or three factual sentences on what the company does, where it is headquartered and how it relates to stablecoins.
---
%s:
- Partner Name | Fortune500Global, CryptoNative or Investor | one line on the relationship
(up to 10 partners, one per line)
---
%s: the company's official website URL

Sources:
%s`, companyName, LabelDescription, LabelPartners, LabelWebsite, Truncate(context, MaxContextChars))
}

// JobsPrompt asks for open business roles at a company.
func JobsPrompt(companyName, context string) string {
	return fmt.Sprintf(`List open job postings at %q found in the sources below. Only include business roles in strategy, partnerships, business development or customer success.

For each job return one block, separated by a line containing only %s:

%s: job title
%s: Strategy, Customer Success, Business Dev, Partnerships or Other
%s: comma-separated locations
%s: direct link to the posting
%s: posting date as YYYY-MM-DD, or Unknown
%s: salary range, or Unknown

Sources:
%s`, companyName, Separator, LabelTitle, LabelDepartment, LabelLocations, LabelURL, LabelPosted, LabelSalary,
		Truncate(context, MaxContextChars))
}

// JobDetailPrompt asks for the fields of a single job posting page.
func JobDetailPrompt(pageURL, content string) string {
	return fmt.Sprintf(`Extract the job posting at %s.

Return exactly this block:

%s: job title
%s: Strategy, Customer Success, Business Dev, Partnerships or Other
%s: comma-separated locations
%s: salary range, or Unknown
%s: posting date as YYYY-MM-DD, or Unknown
%s: two sentence summary of the role
%s:
- one requirement per line
%s:
- one benefit per line

Posting:
%s`, pageURL, LabelTitle, LabelDepartment, LabelLocations, LabelSalary, LabelPosted, LabelDescription,
		LabelRequirements, LabelBenefits, Truncate(content, MaxContextChars))
}

// FundingPrompt asks for the funding history of a company.
func FundingPrompt(companyName, context string) string {
	return fmt.Sprintf(`Summarize the funding history of %q from the sources below.

Return exactly this block:

%s: total capital raised, e.g. $450M
%s: latest reported valuation
%s: most recent round, e.g. Series B
%s: month and year of the most recent round
%s: comma-separated investors

Sources:
%s`, companyName, LabelTotalRaised, LabelValuation, LabelLastRound, LabelLastRoundDate, LabelInvestors,
		Truncate(context, MaxContextChars))
}

// PortfolioPrompt asks for the stablecoin-relevant portfolio of an investor.
func PortfolioPrompt(investorName, context string) string {
	cats := make([]string, 0, len(model.AllCategories))
	for _, c := range model.AllCategories {
		cats = append(cats, string(c))
	}
	return fmt.Sprintf(`List the portfolio companies of the investor %q that work on stablecoins, payments or digital asset infrastructure.

Return exactly this block:

%s:
- Company Name | one of %s | one line on what the company does | website or Unknown

Sources:
%s`, investorName, LabelPortfolio, strings.Join(cats, ", "), Truncate(context, MaxContextChars))
}

// SearchContext renders search results as numbered sources for a prompt.
func SearchContext(results []model.SearchResult) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "[%d] %s\n%s\n%s\n\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return strings.TrimSpace(sb.String())
}

// Truncate cuts s to at most n bytes on a rune boundary, marking the cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n[truncated]"
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
