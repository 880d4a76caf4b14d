package codec

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"gift-quiz-service/internal/domain"
)

// ShareURL returns base with the encoded configuration in its data parameter.
// Other query parameters of base are kept; a previous data value is replaced.
func ShareURL(base string, cfg domain.QuizConfig) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	token, err := Encode(cfg)
	if err != nil {
		return "", err
	}

	// The token is already query-escaped; url.Values would escape its '%' a second time.
	query := u.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		if key != QueryParam {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		for _, v := range query[key] {
			parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(v))
		}
	}
	parts = append(parts, QueryParam+"="+token)
	u.RawQuery = strings.Join(parts, "&")
	return u.String(), nil
}

// TokenFromURL extracts the raw data parameter of a share link. A value that does
// not look like a URL is returned as-is so callers can pass either form.
func TokenFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	idx := strings.Index(raw, "?")
	if idx < 0 {
		return raw
	}
	for _, pair := range strings.Split(raw[idx+1:], "&") {
		if value, ok := strings.CutPrefix(pair, QueryParam+"="); ok {
			if hash := strings.IndexByte(value, '#'); hash >= 0 {
				value = value[:hash]
			}
			return value
		}
	}
	return ""
}
