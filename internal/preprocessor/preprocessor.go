// Package preprocessor condenses fetched HTML before it is embedded in an
// LLM prompt. Stripping markup noise means the prompt's character budget is
// spent on content the model can actually use.
package preprocessor

import (
	"regexp"
	"strings"
)

var (
	scriptRegex   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRegex    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptRegex = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	svgRegex      = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	commentRegex  = regexp.MustCompile(`(?s)<!--.*?-->`)
	headRegex     = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)

	// data: URIs (inline images, fonts) can be enormous and carry no text
	dataURIRegex = regexp.MustCompile(`(?i)(src|href)=["']data:[^"']*["']`)

	blankLineRegex = regexp.MustCompile(`\n\s*\n+`)
	spaceRunRegex  = regexp.MustCompile(`[ \t]{2,}`)
)

// Condense strips scripts, styles, comments, head metadata and inline data
// URIs from html and collapses whitespace runs. The returned string is still
// HTML; element structure and attributes the extraction depends on (names,
// prices, quantities) are preserved.
func Condense(html string) string {
	if html == "" {
		return ""
	}

	out := scriptRegex.ReplaceAllString(html, "")
	out = styleRegex.ReplaceAllString(out, "")
	out = noscriptRegex.ReplaceAllString(out, "")
	out = svgRegex.ReplaceAllString(out, "")
	out = commentRegex.ReplaceAllString(out, "")
	out = headRegex.ReplaceAllString(out, "")
	out = dataURIRegex.ReplaceAllString(out, "")

	out = spaceRunRegex.ReplaceAllString(out, " ")
	out = blankLineRegex.ReplaceAllString(out, "\n")

	return strings.TrimSpace(out)
}
