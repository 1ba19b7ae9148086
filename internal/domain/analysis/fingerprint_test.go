package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_IgnoresOrderCaseAndWhitespace(t *testing.T) {
	a := fitnessRequest()
	b := Request{
		IdeaName:       "  ai   fitness COACH ",
		Summary:        "Personalized workouts  from health data",
		Features:       []string{"Custom Programs", "real-time AI analysis", "custom programs"},
		TargetAudience: "Office workers in their 20s-30s",
	}

	assert.Equal(t, Fingerprint(a, nil), Fingerprint(b, nil))
	assert.Len(t, Fingerprint(a, nil), 64)
}

func TestFingerprint_DistinguishesContent(t *testing.T) {
	a := fitnessRequest()
	b := fitnessRequest()
	b.TargetAudience = "retirees"

	assert.NotEqual(t, Fingerprint(a, nil), Fingerprint(b, nil))
}

func TestFingerprint_IncludesReferenceData(t *testing.T) {
	req := fitnessRequest()
	ref := &ReferenceRecord{
		MarketSize: "20B USD",
		Services: []ReferenceService{
			{Name: "Fitbod", Similarity: 0.8, Source: "web"},
			{Name: "Freeletics", Similarity: 0.7, Source: "web"},
		},
	}
	reordered := &ReferenceRecord{
		MarketSize: "20b usd",
		Services: []ReferenceService{
			{Name: "Freeletics", Similarity: 0.7, Source: "web"},
			{Name: "Fitbod", Similarity: 0.8, Source: "web"},
		},
	}
	changed := &ReferenceRecord{
		MarketSize: "20B USD",
		Services:   []ReferenceService{{Name: "Fitbod", Similarity: 0.9, Source: "web"}},
	}

	assert.NotEqual(t, Fingerprint(req, nil), Fingerprint(req, ref))
	assert.Equal(t, Fingerprint(req, ref), Fingerprint(req, reordered))
	assert.NotEqual(t, Fingerprint(req, ref), Fingerprint(req, changed))
}

func TestKeywords_CollectsDistinctTerms(t *testing.T) {
	kw := Keywords(fitnessRequest())

	assert.Equal(t, []string{"fitness", "coach", "real", "time", "analysis", "custom", "programs", "personalized", "workouts", "from", "health", "data", "office", "workers", "their", "20s", "30s"}, kw)
}

func TestKeywords_CapsLength(t *testing.T) {
	var features []string
	for i := 0; i < 50; i++ {
		features = append(features, string(rune('a'+i%26))+string(rune('a'+i/26))+"xyz")
	}

	kw := Keywords(Request{Features: features})

	assert.Len(t, kw, maxKeywords)
}

func TestKeywords_DecodesSanitizedEntities(t *testing.T) {
	clean := SanitizeRequest(Request{IdeaName: "R&D Tools <Lab>"})

	kw := Keywords(clean)

	assert.Equal(t, []string{"tools", "lab"}, kw)
	assert.NotContains(t, kw, "amp")
}
