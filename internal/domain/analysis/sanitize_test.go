package analysis

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var entity = regexp.MustCompile(`&(lt|gt|amp);`)

func TestSanitize_RemovesOrEscapesUnsafeCharacters(t *testing.T) {
	inputs := []string{
		`<script>alert("x");</script>`,
		`{"ideaName": 'drop'}; DROP TABLE ideas;`,
		`a < b > c & d`,
		`&lt;b&gt; already escaped &amp; friends`,
		`&#59;&#39;&#34;&#123;&#125;`,
		"null\x00byte and \x07bell",
		`plain text`,
		``,
	}
	for _, in := range inputs {
		out := Sanitize(in)
		bare := entity.ReplaceAllString(out, "")

		assert.NotContains(t, bare, "<", "input %q", in)
		assert.NotContains(t, bare, ">", "input %q", in)
		assert.NotContains(t, bare, "'", "input %q", in)
		assert.NotContains(t, bare, `"`, "input %q", in)
		assert.NotContains(t, bare, "{", "input %q", in)
		assert.NotContains(t, bare, "}", "input %q", in)
		assert.NotContains(t, bare, ";", "input %q", in)
		assert.NotContains(t, bare, "&", "input %q", in)
		assert.NotContains(t, out, "\x00", "input %q", in)

		assert.Equal(t, out, Sanitize(out), "sanitize must be idempotent for %q", in)
	}
}

func TestSanitize_KnownOutputs(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", Sanitize("<b>bold</b>"))
	assert.Equal(t, "its a test", Sanitize(`it's a "test"`))
	assert.Equal(t, "fish &amp; chips", Sanitize("fish & chips"))
	assert.Equal(t, "fish &amp; chips", Sanitize("fish &amp; chips"))
	assert.Equal(t, "AI Fitness Coach", Sanitize("  AI Fitness Coach  "))
}

func TestSanitizeRequest_CopiesAndLeavesScoresAlone(t *testing.T) {
	req := Request{
		IdeaName: "<Idea>",
		Features: []string{"a;b"},
		Reference: &ReferenceRecord{
			MarketSize: "{big}",
			Services:   []ReferenceService{{Name: "O'Neil", Similarity: 0.42, Source: "https://x.example/?a=1&b=2"}},
		},
	}

	out := SanitizeRequest(req)

	assert.Equal(t, "&lt;Idea&gt;", out.IdeaName)
	assert.Equal(t, []string{"ab"}, out.Features)
	assert.Equal(t, "big", out.Reference.MarketSize)
	assert.Equal(t, "ONeil", out.Reference.Services[0].Name)
	assert.Equal(t, 0.42, out.Reference.Services[0].Similarity)
	assert.Equal(t, "https://x.example/?a=1&amp;b=2", out.Reference.Services[0].Source)

	// the original is untouched
	assert.Equal(t, "<Idea>", req.IdeaName)
	assert.Equal(t, "a;b", req.Features[0])
	assert.Equal(t, "O'Neil", req.Reference.Services[0].Name)
}
