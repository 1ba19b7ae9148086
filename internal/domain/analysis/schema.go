package analysis

import "fmt"

// Schema is one versioned output shape. The prompt builder and the response
// mapper of a deployment must share the same Schema value.
type Schema struct {
	Version      string
	RequiredKeys []string
	// Example is the literal JSON the model is asked to reproduce.
	Example string
}

// Missing returns the required keys absent from r, in schema order.
func (s Schema) Missing(r Result) []string {
	var missing []string
	for _, k := range s.RequiredKeys {
		if _, ok := r[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Sections keeps only the required keys of r.
func (s Schema) Sections(r Result) Result {
	out := make(Result, len(s.RequiredKeys))
	for _, k := range s.RequiredKeys {
		if v, ok := r[k]; ok {
			out[k] = v
		}
	}
	return out
}

var SchemaV1 = Schema{
	Version:      "v1",
	RequiredKeys: []string{"similarServices", "marketAnalysis", "swotAnalysis"},
	Example: `{
  "similarServices": [
    {"name": "Example Service", "url": "https://example.com", "similarity": 0.8, "difference": "How it differs from the idea"}
  ],
  "marketAnalysis": {
    "size": "3 billion USD",
    "growthRate": "10% per year",
    "trends": ["AI integration", "Personalized services"]
  },
  "swotAnalysis": {
    "strengths": ["Innovative approach"],
    "weaknesses": ["High development costs"],
    "opportunities": ["Rapidly growing market"],
    "threats": ["Strong competition"]
  }
}`,
}

var SchemaV2 = Schema{
	Version: "v2",
	RequiredKeys: []string{
		"similarServices",
		"marketAnalysis",
		"swotAnalysis",
		"pestelAnalysis",
		"towsAnalysis",
		"scores",
		"requiredTeam",
		"overall",
	},
	Example: `{
  "similarServices": [
    {"name": "Example Service", "url": "https://example.com", "similarityScore": 0.85, "difference": "How it differs from the idea"}
  ],
  "marketAnalysis": {
    "classification": {"large": "Healthcare", "medium": "Digital health", "small": "Fitness coaching"},
    "marketSize": {"domestic": "about 3 trillion KRW per year", "global": "about 20 billion USD per year"},
    "growthRate": "12% CAGR",
    "last5YearsGrowth": {"2020": "5%", "2021": "7%", "2022": "9%", "2023": "11%", "2024": "13%"},
    "trends": ["AI integration", "Personalized services"]
  },
  "swotAnalysis": {
    "strengths": ["Innovative technical approach"],
    "weaknesses": ["High initial development cost"],
    "opportunities": ["Rapidly growing market"],
    "threats": ["Strong incumbents"]
  },
  "pestelAnalysis": {
    "political": ["Health data regulation"],
    "economic": ["Subscription spending trends"],
    "social": ["Growing health awareness"],
    "technological": ["Wearable adoption"],
    "environmental": ["Low direct impact"],
    "legal": ["Privacy law compliance"]
  },
  "towsAnalysis": {
    "so": ["Use AI strength to capture growing demand"],
    "st": ["Differentiate through personalization"],
    "wo": ["Partner to lower development cost"],
    "wt": ["Start with a narrow niche"]
  },
  "scores": {
    "marketSize": 8.5,
    "growthPotential": 9.0,
    "bmViability": 7.5,
    "competitiveAdvantage": 8.0,
    "totalScore": 8.2
  },
  "requiredTeam": [
    {"role": "AI engineer", "tasks": "Model development and tuning", "competencies": ["Machine learning", "Python"]},
    {"role": "Backend developer", "tasks": "API and data infrastructure", "competencies": ["Go", "SQL"]}
  ],
  "overall": {
    "oneLineReview": "Strong technical angle and market growth, held back by entry barriers and regulatory risk.",
    "recommendation": "Validate with a small paid pilot before scaling."
  }
}`,
}

// LookupSchema returns the schema registered under version.
func LookupSchema(version string) (Schema, error) {
	switch version {
	case SchemaV1.Version:
		return SchemaV1, nil
	case SchemaV2.Version, "":
		return SchemaV2, nil
	}
	return Schema{}, fmt.Errorf("unknown schema version %q", version)
}
