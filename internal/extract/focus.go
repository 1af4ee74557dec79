package extract

import (
	"strings"
	"unicode"

	"github.com/cloudflare/ahocorasick"

	"github.com/sells-group/stablecoin-intel/internal/model"
)

var cryptoSignals = []string{
	"blockchain", "blockchains", "crypto", "cryptocurrency", "cryptocurrencies",
	"stablecoin", "stablecoins", "defi", "web3", "token", "tokens", "tokenized",
	"tokenization", "digital asset", "digital assets", "on chain", "onchain",
	"smart contract", "smart contracts", "layer 1", "layer 2", "nft", "nfts",
	"dao", "decentralized", "bitcoin", "ethereum", "solana", "usdc", "usdt",
	"validator", "validators", "protocol", "crypto native", "self custody",
}

var traditionalSignals = []string{
	"bank", "banks", "banking", "financial institution", "financial institutions",
	"enterprise", "enterprises", "fortune 500", "consulting", "insurance",
	"asset management", "asset manager", "card network", "merchants", "credit",
	"retail", "treasury", "brokerage", "wealth management", "multinational",
	"publicly traded", "nyse", "nasdaq", "legacy", "traditional finance",
	"tradfi", "correspondent banking", "regulated financial", "mortgage",
}

// signalMatcher counts how many distinct keywords of a list appear in text
// as whole words.
type signalMatcher struct {
	m *ahocorasick.Matcher
}

func newSignalMatcher(keywords []string) signalMatcher {
	padded := make([]string, len(keywords))
	for i, k := range keywords {
		padded[i] = " " + normalizeWords(k) + " "
	}
	return signalMatcher{m: ahocorasick.NewStringMatcher(padded)}
}

func (s signalMatcher) count(normalized string) int {
	return len(s.m.MatchThreadSafe([]byte(normalized)))
}

var (
	cryptoMatcher      = newSignalMatcher(cryptoSignals)
	traditionalMatcher = newSignalMatcher(traditionalSignals)
)

// normalizeWords lowercases s and collapses everything that is not a
// letter or digit into single spaces.
func normalizeWords(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

// DetermineFocus classifies a company as Crypto-First when crypto signals
// outnumber traditional-enterprise signals. Ties are Crypto-Second.
func DetermineFocus(text, companyName string) model.Focus {
	crypto, traditional := FocusSignals(text, companyName)
	if crypto > traditional {
		return model.FocusCryptoFirst
	}
	return model.FocusCryptoSecond
}

// FocusSignals returns the distinct crypto and traditional keyword hits.
func FocusSignals(text, companyName string) (crypto, traditional int) {
	normalized := " " + normalizeWords(companyName+" "+text) + " "
	return cryptoMatcher.count(normalized), traditionalMatcher.count(normalized)
}
