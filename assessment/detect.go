package assessment

import (
	"regexp"
	"strings"
)

const detectSampleSize = 10

type typeRule struct {
	tag      AssessmentType
	idPrefix *regexp.Regexp
	phrases  []string
}

// typeRules are evaluated in order; the first match wins.
var typeRules = []typeRule{
	{
		tag:      "alz",
		idPrefix: regexp.MustCompile(`^A\d+\.\d+`),
		phrases:  []string{"landing zone", "governance", "azure billing"},
	},
	{
		tag:      "aks",
		idPrefix: regexp.MustCompile(`^AKS`),
		phrases:  []string{"kubernetes", "container"},
	},
	{
		tag:     "appsvc",
		phrases: []string{"app service", "web app"},
	},
}

// DetectAssessmentType guesses which reference checklist the items belong to.
// The result is only a hint; fallback is returned when nothing matches.
func DetectAssessmentType(items []RowItem, fallback AssessmentType) AssessmentType {
	sample := items
	if len(sample) > detectSampleSize {
		sample = sample[:detectSampleSize]
	}
	ids := make([]string, 0, len(sample))
	for _, it := range sample {
		if it.ID != "" {
			ids = append(ids, it.ID)
		}
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString(it.RecommendationText)
		b.WriteByte(' ')
		b.WriteString(it.Category)
		b.WriteByte(' ')
	}
	content := strings.ToLower(b.String())

	for _, rule := range typeRules {
		if rule.idPrefix != nil {
			for _, id := range ids {
				if rule.idPrefix.MatchString(id) {
					return rule.tag
				}
			}
		}
		for _, phrase := range rule.phrases {
			if strings.Contains(content, phrase) {
				return rule.tag
			}
		}
	}
	return fallback
}
