// Package extract turns free text from search snippets and scraped pages
// into structured company facts: categories, focus, location, industry,
// funding, partners and names.
package extract

import (
	"regexp"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

var (
	blockchainNameRe = regexp.MustCompile(`(?i)(?:chain|network|protocol|blockchain|labs)\b`)

	chainTermsRe = regexp.MustCompile(`(?i)\blayer[- ]?(?:1|2|one|two)\b|\bl[12]\b|\bproof[- ]of[- ](?:stake|work|history|authority)\b|\bconsensus\b|\bvalidators?\b|\bmainnet\b|\bevm[- ]compatible\b|\brollups?\b`)

	isLayerChainRe = regexp.MustCompile(`(?i)\bis an? (?:[a-z-]+ ){0,3}layer[- ]?(?:1|2|one|two)\b[^.]{0,40}\b(?:blockchain|network|chain)\b`)

	isPublicChainRe = regexp.MustCompile(`(?i)\bis an? (?:(?:public|open-source|decentralized|permissionless|proof-of-stake|high-performance|scalable|enterprise) ){1,3}blockchain(?:\s+(?:network|platform|protocol))?(?:[\s.,;]|$)`)

	issuesStablecoinRe = regexp.MustCompile(`(?i)\bissues? (?:its own |a |the |an )?(?:[a-z0-9$-]+ ){0,2}stablecoins?\b|\bstablecoin issuer\b|\bissuer of (?:the )?(?:[a-z0-9$-]+ ){0,2}stablecoins?\b`)
)

// IsBlockchainEntity reports whether the entity described by text is itself
// a blockchain: a chain-like name backed by layer or consensus terms, or an
// explicit "is a layer-1 blockchain" statement.
func IsBlockchainEntity(text, name string) bool {
	if name != "" && blockchainNameRe.MatchString(name) && chainTermsRe.MatchString(text) {
		return true
	}
	return isLayerChainRe.MatchString(text) || isPublicChainRe.MatchString(text)
}

// catState is the working set the category rules read and mutate.
type catState struct {
	text string
	name string
	cats []model.Category
}

func (s *catState) has(c model.Category) bool {
	for _, x := range s.cats {
		if x == c {
			return true
		}
	}
	return false
}

func (s *catState) add(c model.Category) {
	if !s.has(c) {
		s.cats = append(s.cats, c)
	}
}

func (s *catState) remove(c model.Category) {
	out := s.cats[:0]
	for _, x := range s.cats {
		if x != c {
			out = append(out, x)
		}
	}
	s.cats = out
}

// catRule is one step of the categorization cascade. A final rule that
// fires ends evaluation.
type catRule struct {
	name  string
	when  func(*catState) bool
	then  func(*catState)
	final bool
}

func textRule(cat model.Category, pattern string) catRule {
	re := regexp.MustCompile(`(?i)` + pattern)
	return catRule{
		name: string(cat),
		when: func(s *catState) bool { return re.MatchString(s.text) },
		then: func(s *catState) { s.add(cat) },
	}
}

func nameOrTextRule(cat model.Category, namePattern, textPattern string) catRule {
	nameRe := regexp.MustCompile(`(?i)` + namePattern)
	textRe := regexp.MustCompile(`(?i)` + textPattern)
	return catRule{
		name: string(cat),
		when: func(s *catState) bool {
			return (s.name != "" && nameRe.MatchString(s.name)) || textRe.MatchString(s.text)
		},
		then: func(s *catState) { s.add(cat) },
	}
}

var (
	centralBankNameRe = regexp.MustCompile(`(?i)\b(?:central bank|monetary authority|reserve bank|federal reserve|bundesbank|banque de france|banca d'italia|banco de españa|people's bank of china|bank of (?:england|japan|canada|korea|thailand|israel|russia|ghana|jamaica))\b`)
	centralBankTextRe = regexp.MustCompile(`(?i)\b(?:is|as) (?:the|a|an) (?:[a-z'-]+ ){0,3}(?:central bank|monetary authority)\b`)

	bankNameRe = regexp.MustCompile(`(?i)\b(?:bank|bancorp|banking|banco|banque|bancshares|credit union|savings|capital one|jpmorgan|citi(?:group|bank)?|hsbc|barclays|goldman sachs|morgan stanley|wells fargo|bny(?: mellon)?|state street|santander|societe generale|société générale|deutsche bank|ubs|bnp paribas|standard chartered)\b`)
	bankTextRe = regexp.MustCompile(`(?i)\b(?:chartered|licensed|regulated|federally insured|fdic-insured) (?:(?:national|state|commercial|trust|digital|retail) ){0,2}bank\b|\bbank(?:ing)? (?:charter|license|licence)\b|\bis an? (?:[a-z-]+ ){0,3}(?:bank|bank holding company|banking group)\b`)
)

// categoryRules run in order. Precedence lives in the ordering: the
// blockchain rule short-circuits, and the bank and investor rules run
// after the keyword triggers so they can strip Infrastructure.
var categoryRules = []catRule{
	{
		name: "blockchain entity",
		when: func(s *catState) bool { return IsBlockchainEntity(s.text, s.name) },
		then: func(s *catState) {
			s.cats = []model.Category{model.CategoryInfrastructure}
			if issuesStablecoinRe.MatchString(s.text) {
				s.add(model.CategoryIssuer)
			}
		},
		final: true,
	},
	textRule(model.CategoryIssuer, `\bstablecoin issuer\b|\bissues? (?:its own |a |the |an )?(?:[a-z0-9$-]+ ){0,2}stablecoins?\b|\bissuer of\b|\bfiat-backed (?:stablecoin|token)s?\b|\bmints? (?:and redeems? )?(?:[a-z0-9$-]+ )?stablecoins?\b`),
	textRule(model.CategoryInfrastructure, `\binfrastructure\b|\bapis?\b|\bsdks?\b|\borchestration\b|\bsettlement (?:layer|network|rails?)\b|\btokeni[sz]ation platform\b|\bdeveloper platform\b|\bblockchain (?:platform|network)\b|\bon[- ]?ramps?\b|\boff[- ]?ramps?\b`),
	textRule(model.CategoryWallet, `\bwallets?\b`),
	textRule(model.CategoryPayments, `\bpayments?\b|\bremittances?\b|\bcross-border\b|\bmerchants?\b|\bpayouts?\b|\bcard (?:issuing|program|network)s?\b|\bmoney transfer\b`),
	textRule(model.CategoryDeFi, `\bdefi\b|\bdecentrali[sz]ed finance\b|\blending protocol\b|\bliquidity pools?\b|\bdex\b|\bdecentrali[sz]ed exchange\b|\byield (?:farming|protocol|aggregator)\b|\bautomated market maker\b`),
	textRule(model.CategoryCustody, `\bcustod(?:y|ian|ial)\b|\bsafekeeping\b`),
	nameOrTextRule(model.CategoryVC, `\b(?:ventures|vc)\b|\bcapital(?: (?:partners|management|group|ventures))?\s*$`, `\bventure capital\b|\bventure firm\b|\binvestment firm\b|\bportfolio compan(?:y|ies)\b|\bearly-stage investor\b`),
	nameOrTextRule(model.CategoryConsultancy, `\b(?:consulting|advisory|consultants)\b`, `\bconsult(?:ancy|ing) (?:firm|services|company)\b|\badvisory (?:firm|services)\b|\bprofessional services firm\b|\bmanagement consult`),
	{
		name: string(model.CategoryCentralBanks),
		when: func(s *catState) bool {
			return (s.name != "" && centralBankNameRe.MatchString(s.name)) || centralBankTextRe.MatchString(s.text)
		},
		then: func(s *catState) {
			s.add(model.CategoryCentralBanks)
			s.remove(model.CategoryInfrastructure)
		},
	},
	{
		name: string(model.CategoryBanks),
		when: func(s *catState) bool {
			if s.has(model.CategoryCentralBanks) {
				return false
			}
			return (s.name != "" && bankNameRe.MatchString(s.name)) || bankTextRe.MatchString(s.text)
		},
		then: func(s *catState) {
			s.add(model.CategoryBanks)
			s.remove(model.CategoryInfrastructure)
		},
	},
	{
		name: "investor suppresses infrastructure",
		when: func(s *catState) bool {
			return s.has(model.CategoryInfrastructure) && (s.has(model.CategoryVC) || s.has(model.CategoryConsultancy))
		},
		then: func(s *catState) { s.remove(model.CategoryInfrastructure) },
	},
}

// CategorizeFromText derives category tags for a company from its
// description. It is deterministic and the result is deduplicated.
func CategorizeFromText(text, companyName string) []model.Category {
	s := &catState{text: text, name: companyName}
	for _, r := range categoryRules {
		if !r.when(s) {
			continue
		}
		r.then(s)
		if r.final {
			break
		}
	}
	return model.DedupeCategories(s.cats)
}
