package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

var hostLabelRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)

// SanitizeWebsite normalizes a company website to https://host[/path].
// Repeated TLDs ("example.com.com") collapse, trailing slashes go, and
// anything that does not parse as a web address yields "".
func SanitizeWebsite(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}

	host := collapseRepeatedTLD(strings.ToLower(u.Hostname()))
	if !validHost(host) {
		return ""
	}
	port := u.Port()
	u.Host = host
	if port != "" {
		u.Host = host + ":" + port
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return strings.TrimRight(u.String(), "/")
}

func collapseRepeatedTLD(host string) string {
	labels := strings.Split(host, ".")
	for len(labels) > 2 && labels[len(labels)-1] == labels[len(labels)-2] {
		labels = labels[:len(labels)-1]
	}
	return strings.Join(labels, ".")
}

func validHost(host string) bool {
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if !hostLabelRe.MatchString(l) {
			return false
		}
	}
	tld := labels[len(labels)-1]
	return len(tld) >= 2 && strings.IndexFunc(tld, func(r rune) bool { return r >= '0' && r <= '9' }) < 0
}
