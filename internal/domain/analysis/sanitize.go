package analysis

import (
	"html"
	"strings"
)

var denylist = strings.NewReplacer(";", "", "'", "", `"`, "", "{", "", "}", "")

// Sanitize makes free text safe to interpolate into a prompt. Existing entities
// are decoded first so that sanitizing twice yields the same text.
func Sanitize(input string) string {
	s := html.UnescapeString(input)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 32 || r == '\t' || r == '\n' {
			b.WriteRune(r)
		}
	}

	s = strings.TrimSpace(denylist.Replace(b.String()))
	return html.EscapeString(s)
}

// SanitizeRequest returns a copy of req with every free-text field sanitized.
// Similarity scores are left alone.
func SanitizeRequest(req Request) Request {
	out := Request{
		IdeaName:       Sanitize(req.IdeaName),
		Summary:        Sanitize(req.Summary),
		TargetAudience: Sanitize(req.TargetAudience),
		Problem:        Sanitize(req.Problem),
		Solution:       Sanitize(req.Solution),
		Team:           Sanitize(req.Team),
	}
	if req.Features != nil {
		out.Features = make([]string, len(req.Features))
		for i, f := range req.Features {
			out.Features[i] = Sanitize(f)
		}
	}
	out.Reference = SanitizeReference(req.Reference)
	return out
}

func SanitizeReference(ref *ReferenceRecord) *ReferenceRecord {
	if ref == nil {
		return nil
	}
	out := &ReferenceRecord{MarketSize: Sanitize(ref.MarketSize)}
	if ref.Services != nil {
		out.Services = make([]ReferenceService, len(ref.Services))
		for i, s := range ref.Services {
			out.Services[i] = ReferenceService{
				Name:       Sanitize(s.Name),
				Similarity: s.Similarity,
				Source:     Sanitize(s.Source),
			}
		}
	}
	return out
}
