package common

import "net/url"

// WithQuery sets key=value on the query string of rawURL, keeping any
// existing parameters. rawURL is returned unchanged when it cannot be parsed.
func WithQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
