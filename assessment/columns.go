package assessment

import (
	"sort"
	"strings"
	"unicode"
)

// Field is a semantic column of an uploaded assessment table.
type Field string

const (
	FieldID          Field = "id"
	FieldStatus      Field = "status"
	FieldComment     Field = "comment"
	FieldCategory    Field = "category"
	FieldSubcategory Field = "subcategory"
	FieldText        Field = "text"
	FieldSeverity    Field = "severity"
	FieldService     Field = "service"
	FieldWAF         Field = "waf"
)

// ColumnMap maps semantic fields to column indices of one table.
type ColumnMap map[Field]int

// Index returns the column mapped to field.
func (m ColumnMap) Index(field Field) (int, bool) {
	idx, ok := m[field]
	return idx, ok
}

// Fields returns the mapped fields ordered by column index.
func (m ColumnMap) Fields() []Field {
	out := make([]Field, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return m[out[i]] < m[out[j]] })
	return out
}

// exactHeaders wins over any substring rule. "commant" and "sevirity" are
// misspellings found in real exported checklists.
var exactHeaders = map[string]Field{
	"id":        FieldID,
	"guid":      FieldID,
	"item id":   FieldID,
	"reference": FieldID,
	"ref":       FieldID,

	"status":     FieldStatus,
	"compliance": FieldStatus,
	"result":     FieldStatus,

	"comment":  FieldComment,
	"comments": FieldComment,
	"commant":  FieldComment,
	"commants": FieldComment,
	"note":     FieldComment,
	"notes":    FieldComment,
	"remarks":  FieldComment,

	"category":    FieldCategory,
	"design area": FieldCategory,
	"area":        FieldCategory,
	"domain":      FieldCategory,

	"subcategory":  FieldSubcategory,
	"sub-category": FieldSubcategory,
	"sub category": FieldSubcategory,

	"text":           FieldText,
	"checklist item": FieldText,
	"recommendation": FieldText,
	"description":    FieldText,
	"check":          FieldText,
	"title":          FieldText,

	"severity": FieldSeverity,
	"sevirity": FieldSeverity,
	"priority": FieldSeverity,

	"service": FieldService,

	"waf":        FieldWAF,
	"waf pillar": FieldWAF,
	"pillar":     FieldWAF,
}

type containsRule struct {
	field   Field
	needles []string
}

// containsRules are tried in order; subcategory must precede category.
var containsRules = []containsRule{
	{FieldSubcategory, []string{"subcategory", "sub-category", "sub category"}},
	{FieldID, []string{"guid", "reference"}},
	{FieldStatus, []string{"status", "compliance", "result"}},
	{FieldComment, []string{"comment", "commant", "note", "remark"}},
	{FieldSeverity, []string{"severity", "sevirity", "priority"}},
	{FieldWAF, []string{"waf", "pillar"}},
	{FieldCategory, []string{"category", "domain", "area"}},
	{FieldText, []string{"recommendation", "checklist item", "check", "text", "title", "description"}},
	{FieldService, []string{"service"}},
}

// BuildColumnMap classifies every header cell into at most one field. The
// first cell mapped to a field keeps it, except that a header literally named
// "text" or "checklist item" replaces a weaker earlier text column.
func BuildColumnMap(header []string) ColumnMap {
	m := make(ColumnMap)
	strongText := false
	for i, cell := range header {
		h := strings.ToLower(strings.TrimSpace(cell))
		if h == "" {
			continue
		}
		field, ok := classifyHeader(h)
		if !ok {
			continue
		}
		if field == FieldText {
			strong := h == "text" || h == "checklist item"
			if _, exists := m[FieldText]; !exists || (strong && !strongText) {
				m[FieldText] = i
				strongText = strongText || strong
			}
			continue
		}
		if _, exists := m[field]; !exists {
			m[field] = i
		}
	}
	return m
}

func classifyHeader(h string) (Field, bool) {
	if f, ok := exactHeaders[h]; ok {
		return f, true
	}
	if hasWord(h, "id") {
		return FieldID, true
	}
	for _, rule := range containsRules {
		for _, needle := range rule.needles {
			if strings.Contains(h, needle) {
				return rule.field, true
			}
		}
	}
	return "", false
}

func hasWord(h, word string) bool {
	parts := strings.FieldsFunc(h, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, p := range parts {
		if p == word {
			return true
		}
	}
	return false
}
