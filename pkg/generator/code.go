// Package generator produces short codes for target URLs, either derived
// from the URL's own keywords or uniformly random. Uniqueness is the
// registry's job; the generator only makes good candidates.
package generator

import (
	"crypto/rand"
	"math/big"
	"net/url"
	"regexp"
	"strings"
)

const base62Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)
	leadingDigits   = regexp.MustCompile(`^[0-9]+`)
)

type Config struct {
	// MinLength and MaxLength bound the semantic part of a candidate,
	// before the trailing uniqueness digit.
	MinLength int
	MaxLength int
	// RandomLength is the length of fully random fallback codes.
	RandomLength int
}

type Generator struct {
	cfg Config
}

func New(cfg Config) *Generator {
	if cfg.MinLength <= 0 {
		cfg.MinLength = 5
	}
	if cfg.MaxLength < cfg.MinLength {
		cfg.MaxLength = 10
	}
	if cfg.RandomLength <= 0 {
		cfg.RandomLength = 6
	}
	return &Generator{cfg: cfg}
}

// Semantic derives a readable candidate from the target URL: the first
// keyword truncated to five characters, two-letter fragments of the next
// two keywords, random padding up to MinLength, truncation at MaxLength,
// and one random digit appended for uniqueness. Falls back to Random
// when the URL yields no keywords.
func (g *Generator) Semantic(targetURL string) (string, error) {
	keywords := extractKeywords(targetURL)
	if len(keywords) == 0 {
		return g.Random()
	}

	code := strings.ToLower(truncate(keywords[0], 5))

	for i := 1; i < len(keywords) && i < 3; i++ {
		if len(keywords[i]) > 2 {
			code += strings.ToLower(keywords[i][:2])
		}
	}

	if len(code) < g.cfg.MinLength {
		pad, err := randomString(g.cfg.MinLength - len(code))
		if err != nil {
			return "", err
		}
		code += pad
	}

	code = truncate(code, g.cfg.MaxLength)

	digit, err := randomDigit()
	if err != nil {
		return "", err
	}

	return code + digit, nil
}

// Random returns a uniformly random base62 code of the configured
// fallback length.
func (g *Generator) Random() (string, error) {
	return randomString(g.cfg.RandomLength)
}

// extractKeywords pulls the hostname (minus a leading www) and up to two
// path segments out of the URL, stripped of non-alphanumeric characters
// and leading digits.
func extractKeywords(raw string) []string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return nil
	}

	domainParts := strings.Split(parsed.Hostname(), ".")
	domain := domainParts[0]
	if domain == "www" && len(domainParts) > 1 {
		domain = domainParts[1]
	}

	keywords := []string{domain}
	for _, segment := range strings.Split(parsed.EscapedPath(), "/") {
		if segment == "" {
			continue
		}
		keywords = append(keywords, segment)
		if len(keywords) == 3 {
			break
		}
	}

	cleaned := keywords[:0]
	for _, keyword := range keywords {
		keyword = nonAlphanumeric.ReplaceAllString(keyword, "")
		keyword = leadingDigits.ReplaceAllString(keyword, "")
		if keyword != "" {
			cleaned = append(cleaned, keyword)
		}
	}

	return cleaned
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func randomString(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base62Chars))))
		if err != nil {
			return "", err
		}
		b[i] = base62Chars[n.Int64()]
	}
	return string(b), nil
}

func randomDigit() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10))
	if err != nil {
		return "", err
	}
	return n.String(), nil
}
