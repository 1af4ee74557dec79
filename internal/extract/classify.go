package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

var departmentRules = []struct {
	dept model.Department
	re   *regexp.Regexp
}{
	{model.DepartmentPartnerships, regexp.MustCompile(`(?i)\bpartner(?:ship)?s?\b|\balliances?\b|\becosystem\b|\bchannel\b`)},
	{model.DepartmentBusinessDev, regexp.MustCompile(`(?i)\bbusiness development\b|\bbd\b|\bbdr\b|\bsales\b|\baccount executive\b|\bgrowth\b|\bcommercial\b|\bgo-to-market\b|\bgtm\b`)},
	{model.DepartmentCustomerSuccess, regexp.MustCompile(`(?i)\bcustomer success\b|\baccount manag|\bclient services\b|\bsupport\b|\bonboarding\b|\bimplementation\b|\bsolutions engineer\b`)},
	{model.DepartmentStrategy, regexp.MustCompile(`(?i)\bstrateg(?:y|ic)\b|\bcorporate development\b|\bchief of staff\b|\bcorp ?dev\b|\bm&a\b`)},
}

// ClassifyDepartment maps a job title to a department. Partnership titles
// win over generic strategy or sales wording.
func ClassifyDepartment(title string) model.Department {
	for _, r := range departmentRules {
		if r.re.MatchString(title) {
			return r.dept
		}
	}
	return model.DepartmentOther
}

var (
	partnershipNewsRe  = regexp.MustCompile(`(?i)\bpartner(?:s|ed|ing|ship|ships)?\b|\bteams? up\b|\bteamed up\b|\bcollaborat\w*\b|\bjoins? forces\b|\balliance\b|\bintegrat(?:es|ion) with\b`)
	pressReleaseTextRe = regexp.MustCompile(`(?i)\bpress release\b|\bannounced today\b|\btoday announced\b|/prnewswire/|\(business wire\)|\bglobe newswire\b|\bfor immediate release\b`)
)

var wireServices = toSet(
	"business wire", "pr newswire", "globenewswire", "accesswire", "prweb",
	"newsfile", "einpresswire", "cision",
)

// ClassifySourceType labels a news item. A partnership headline wins, then
// wire-service or press-release wording, then partnership wording in the
// summary. Everything else is press.
func ClassifySourceType(title, summary, source string) model.SourceType {
	if partnershipNewsRe.MatchString(title) {
		return model.SourceTypePartnership
	}
	if wireServices[strings.ToLower(strings.TrimSpace(source))] || pressReleaseTextRe.MatchString(title+" "+summary) {
		return model.SourceTypePressRelease
	}
	if partnershipNewsRe.MatchString(summary) {
		return model.SourceTypePartnership
	}
	return model.SourceTypePress
}
