package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"html"
	"sort"
	"strings"
	"unicode"
)

type canonicalRequest struct {
	IdeaName       string             `json:"ideaName"`
	Summary        string             `json:"summary"`
	Features       []string           `json:"features"`
	TargetAudience string             `json:"targetAudience"`
	Problem        string             `json:"problem"`
	Solution       string             `json:"solution"`
	Team           string             `json:"team"`
	MarketSize     string             `json:"marketSize"`
	Services       []ReferenceService `json:"services"`
}

// Fingerprint is the cache key of a request together with the reference data
// injected into its prompt. Case, whitespace and feature order do not matter.
func Fingerprint(req Request, ref *ReferenceRecord) string {
	c := canonicalRequest{
		IdeaName:       normalize(req.IdeaName),
		Summary:        normalize(req.Summary),
		Features:       normalizeSet(req.Features),
		TargetAudience: normalize(req.TargetAudience),
		Problem:        normalize(req.Problem),
		Solution:       normalize(req.Solution),
		Team:           normalize(req.Team),
	}
	if ref != nil {
		c.MarketSize = normalize(ref.MarketSize)
		for _, s := range ref.Services {
			c.Services = append(c.Services, ReferenceService{
				Name:       normalize(s.Name),
				Similarity: s.Similarity,
				Source:     normalize(s.Source),
			})
		}
		sort.Slice(c.Services, func(i, j int) bool {
			if c.Services[i].Name != c.Services[j].Name {
				return c.Services[i].Name < c.Services[j].Name
			}
			return c.Services[i].Source < c.Services[j].Source
		})
	}

	// Marshalling a struct of strings and floats cannot fail.
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizeSet(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		n := normalize(it)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

const maxKeywords = 32

// Keywords extracts lower-cased search terms from the identifying fields of req,
// used to match stored reference data. Entities left by the sanitizer are
// decoded first so "R&amp;D" does not yield "amp".
func Keywords(req Request) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(text string) {
		words := strings.FieldsFunc(strings.ToLower(html.UnescapeString(text)), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if len([]rune(w)) < 3 || len(out) >= maxKeywords {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	add(req.IdeaName)
	for _, f := range req.Features {
		add(f)
	}
	add(req.Summary)
	add(req.TargetAudience)
	return out
}
