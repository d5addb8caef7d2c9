// Package protection detects bot walls and challenge pages in fetched HTML,
// so extraction fails with a clear message instead of sending a challenge
// page to the LLM.
package protection

import (
	"regexp"
	"strings"
)

// Signal identifies the kind of protection found on a page.
type Signal string

const (
	SignalNone       Signal = ""
	SignalChallenge  Signal = "challenge"
	SignalCaptcha    Signal = "captcha"
	SignalBlocked    Signal = "blocked"
	SignalScriptOnly Signal = "script_only"
)

// Detection is the outcome of scanning a page body.
type Detection struct {
	Signal  Signal
	Message string
}

// Detected reports whether any protection signal was found.
func (d Detection) Detected() bool {
	return d.Signal != SignalNone
}

var (
	challengePatterns = []string{
		"cf-browser-verification",
		"challenge-platform",
		"cf_chl_opt",
		"_cf_chl",
		"checking your browser",
		"just a moment...",
		"attention required! | cloudflare",
	}

	captchaPatterns = []string{
		"g-recaptcha",
		"grecaptcha",
		"h-captcha",
		"hcaptcha",
		"data-sitekey",
		"cf-turnstile",
		"captcha-container",
	}

	blockedPatterns = []string{
		"access to this page has been denied",
		"request blocked",
		"bot detected",
		"please verify you are human",
		"are you a robot",
		"prove you're not a robot",
	}

	// Empty SPA root elements mean the product content never made it into
	// the static HTML.
	spaRootPatterns = []*regexp.Regexp{
		regexp.MustCompile(`<div\s+id=["'](?:root|app|__next|__nuxt)["'][^>]*>\s*</div>`),
		regexp.MustCompile(`<app-root[^>]*>\s*</app-root>`),
	}
)

// Detect scans page HTML for protection signals. It is only meaningful on
// successful responses; error statuses and empty bodies are handled before
// the page gets here.
func Detect(html string) Detection {
	lower := strings.ToLower(html)

	for _, pattern := range challengePatterns {
		if strings.Contains(lower, pattern) {
			return Detection{
				Signal:  SignalChallenge,
				Message: "Page is behind a bot protection challenge",
			}
		}
	}

	for _, pattern := range captchaPatterns {
		if strings.Contains(lower, pattern) {
			return Detection{
				Signal:  SignalCaptcha,
				Message: "Page requires solving a captcha",
			}
		}
	}

	for _, pattern := range blockedPatterns {
		if strings.Contains(lower, pattern) {
			return Detection{
				Signal:  SignalBlocked,
				Message: "Page blocked automated access",
			}
		}
	}

	for _, pattern := range spaRootPatterns {
		if pattern.MatchString(lower) {
			return Detection{
				Signal:  SignalScriptOnly,
				Message: "Page renders its content with JavaScript and returned no static HTML",
			}
		}
	}

	return Detection{}
}
