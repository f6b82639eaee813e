// Package extract pulls URL-like substrings out of message text.
package extract

import "regexp"

var urlExprs = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`),
	regexp.MustCompile(`(?i)www\.[^\s<>"{}|\\^` + "`" + `\[\]]+`),
	regexp.MustCompile(`(?i)bit\.ly/[^\s]+`),
	regexp.MustCompile(`(?i)t\.me/[^\s]+`),
	regexp.MustCompile(`(?i)linkedin\.com/[^\s]+`),
	regexp.MustCompile(`(?i)forms\.gle/[^\s]+`),
}

var trailingPunct = regexp.MustCompile(`[.,;:!?\)]+$`)

// URLs returns the unique URL-like substrings in text, in first-seen order.
// Each candidate is trimmed of trailing punctuation before dedup. Absence of
// URLs yields an empty slice; there is no failure mode.
func URLs(text string) []string {
	urls := make([]string, 0, 4)
	seen := map[string]struct{}{}

	for _, re := range urlExprs {
		for _, raw := range re.FindAllString(text, -1) {
			url := trailingPunct.ReplaceAllString(raw, "")
			if url == "" {
				continue
			}
			if _, ok := seen[url]; ok {
				continue
			}
			seen[url] = struct{}{}
			urls = append(urls, url)
		}
	}

	return urls
}
