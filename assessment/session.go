package assessment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionItem is a reference item together with its review state.
type SessionItem struct {
	ReferenceItem
	Status     Status     `json:"status"`
	Comment    string     `json:"comment,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy string     `json:"reviewedBy,omitempty"`
}

// Statistics summarizes review progress.
type Statistics struct {
	Total                int `json:"total"`
	Reviewed             int `json:"reviewed"`
	Fulfilled            int `json:"fulfilled"`
	Open                 int `json:"open"`
	NotApplicable        int `json:"notApplicable"`
	NotReviewed          int `json:"notReviewed"`
	CompletionPercentage int `json:"completionPercentage"`
}

// Filter selects session items. Empty fields match everything.
type Filter struct {
	Category    string
	Subcategory string
	Severity    string
	WAF         string
	Status      Status
	Service     string
	Search      string
}

// ExportOptions controls which fields an export carries.
type ExportOptions struct {
	IncludeComments bool `json:"includeComments"`
	IncludeLinks    bool `json:"includeLinks"`
	OnlyReviewed    bool `json:"onlyReviewed"`
}

// DefaultExportOptions includes comments and links for every item.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{IncludeComments: true, IncludeLinks: true}
}

// ExportMetadata describes the checklist an export was taken from.
type ExportMetadata struct {
	Metadata
	SessionID     string        `json:"sessionId"`
	ExportedAt    time.Time     `json:"exportedAt"`
	ExportOptions ExportOptions `json:"exportOptions"`
}

// ExportItem is one item of an exported assessment.
type ExportItem struct {
	ID          string     `json:"id"`
	GUID        string     `json:"guid,omitempty"`
	Category    string     `json:"category,omitempty"`
	Subcategory string     `json:"subcategory,omitempty"`
	Text        string     `json:"text"`
	Severity    string     `json:"severity,omitempty"`
	WAF         string     `json:"waf,omitempty"`
	Service     string     `json:"service,omitempty"`
	Status      Status     `json:"status"`
	Comment     string     `json:"comment,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy  string     `json:"reviewedBy,omitempty"`
	Link        string     `json:"link,omitempty"`
	Training    string     `json:"training,omitempty"`
}

// ExportData is the JSON document written by Export and read by ImportProgress.
type ExportData struct {
	AssessmentType AssessmentType `json:"assessmentType"`
	Metadata       ExportMetadata `json:"metadata"`
	Statistics     Statistics     `json:"statistics"`
	Items          []ExportItem   `json:"items"`
}

// ProgressEntry is an uploaded status for one item.
type ProgressEntry struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	Comment    string     `json:"comment,omitempty"`
	Comments   string     `json:"comments,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy string     `json:"reviewedBy,omitempty"`
}

// ErrNoSessionItems is returned when progress targets an empty session.
var ErrNoSessionItems = errors.New("no assessment loaded to apply progress to")

// Session owns the review state of one checklist.
type Session struct {
	ID uuid.UUID

	mu        sync.RWMutex
	checklist *Checklist
	items     []SessionItem
	byID      map[string]int
	byGUID    map[string]int
	reviewer  string
	now       func() time.Time
}

// NewSession starts a session over cl with every item not yet verified.
func NewSession(cl *Checklist, reviewer string) *Session {
	if reviewer == "" {
		reviewer = DefaultConfig().Reviewer
	}
	s := &Session{
		ID:        uuid.New(),
		checklist: cl,
		byID:      make(map[string]int),
		byGUID:    make(map[string]int),
		reviewer:  reviewer,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if cl == nil {
		return s
	}
	s.items = make([]SessionItem, len(cl.Items))
	for i, ref := range cl.Items {
		s.items[i] = SessionItem{ReferenceItem: ref, Status: StatusNotVerified}
		if _, dup := s.byID[ref.ID]; !dup {
			s.byID[ref.ID] = i
		}
		if _, dup := s.byGUID[ref.GUID]; ref.GUID != "" && !dup {
			s.byGUID[ref.GUID] = i
		}
	}
	return s
}

// Type returns the assessment type of the session checklist.
func (s *Session) Type() AssessmentType {
	if s.checklist == nil {
		return ""
	}
	return s.checklist.Type
}

// Items returns a copy of every item in checklist order.
func (s *Session) Items() []SessionItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionItem, len(s.items))
	copy(out, s.items)
	return out
}

// Item returns the item with id.
func (s *Session) Item(id string) (SessionItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return SessionItem{}, false
	}
	return s.items[i], true
}

// UpdateItem sets status and comment and stamps the review. It reports whether
// id exists.
func (s *Session) UpdateItem(id string, status Status, comment string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	at := s.now()
	s.items[i].Status = NormalizeStatus(string(status))
	s.items[i].Comment = comment
	s.items[i].ReviewedAt = &at
	s.items[i].ReviewedBy = s.reviewer
	return true
}

// ApplyProgress merges uploaded row items by id and returns how many statuses
// were applied. Rows without an id are ignored.
func (s *Session) ApplyProgress(items []RowItem) (int, error) {
	entries := make([]ProgressEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, ProgressEntry{ID: it.ID, Status: string(it.Status), Comment: it.Comment})
	}
	return s.ApplyEntries(entries)
}

// ApplyEntries merges uploaded progress entries by id. The last entry for an id
// wins.
func (s *Session) ApplyEntries(entries []ProgressEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return 0, ErrNoSessionItems
	}
	latest := make(map[string]ProgressEntry, len(entries))
	for _, e := range entries {
		if e.ID != "" {
			latest[e.ID] = e
		}
	}
	applied := 0
	for i := range s.items {
		e, ok := latest[s.items[i].ID]
		if !ok {
			continue
		}
		if e.Status != "" {
			s.items[i].Status = NormalizeStatus(e.Status)
			applied++
		}
		if c := firstNonEmpty(e.Comment, e.Comments); c != "" {
			s.items[i].Comment = c
		}
	}
	return applied, nil
}

// Statistics counts items per status.
func (s *Session) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return statistics(s.items)
}

func statistics(items []SessionItem) Statistics {
	st := Statistics{Total: len(items)}
	for _, it := range items {
		switch it.Status {
		case StatusFulfilled:
			st.Fulfilled++
		case StatusOpen:
			st.Open++
		case StatusNotRequired:
			st.NotApplicable++
		default:
			st.NotReviewed++
		}
	}
	st.Reviewed = st.Total - st.NotReviewed
	if st.Total > 0 {
		st.CompletionPercentage = int(math.Round(float64(st.Reviewed) / float64(st.Total) * 100))
	}
	return st
}

// Filter returns the items matching f in checklist order.
func (s *Session) Filter(f Filter) []SessionItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []SessionItem
	for _, it := range s.items {
		if !f.matches(it, search) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (f Filter) matches(it SessionItem, search string) bool {
	switch {
	case f.Category != "" && it.Category != f.Category:
		return false
	case f.Subcategory != "" && it.Subcategory != f.Subcategory:
		return false
	case f.Severity != "" && it.Severity != f.Severity:
		return false
	case f.WAF != "" && it.WAF != f.WAF:
		return false
	case f.Status != "" && it.Status != f.Status:
		return false
	case f.Service != "" && it.Service != f.Service:
		return false
	}
	if search == "" {
		return true
	}
	for _, v := range []string{it.Text, it.Category, it.Subcategory, it.ID} {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

// Export snapshots the session as an export document.
func (s *Session) Export(opts ExportOptions) ExportData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := ExportData{
		AssessmentType: s.Type(),
		Metadata: ExportMetadata{
			SessionID:     s.ID.String(),
			ExportedAt:    s.now(),
			ExportOptions: opts,
		},
		Statistics: statistics(s.items),
		Items:      make([]ExportItem, 0, len(s.items)),
	}
	if s.checklist != nil {
		doc.Metadata.Metadata = s.checklist.Metadata
	}
	for _, it := range s.items {
		if opts.OnlyReviewed && it.Status == StatusNotVerified {
			continue
		}
		ei := ExportItem{
			ID:          it.ID,
			GUID:        it.GUID,
			Category:    it.Category,
			Subcategory: it.Subcategory,
			Text:        it.Text,
			Severity:    it.Severity,
			WAF:         it.WAF,
			Service:     it.Service,
			Status:      it.Status,
		}
		if opts.IncludeComments {
			ei.Comment = it.Comment
			ei.ReviewedAt = it.ReviewedAt
			ei.ReviewedBy = it.ReviewedBy
		}
		if opts.IncludeLinks {
			ei.Link = it.Link
			ei.Training = it.Training
		}
		doc.Items = append(doc.Items, ei)
	}
	return doc
}

// ImportProgress restores status, comment and review stamps by id from a
// previous export, falling back to the guid when the id is unknown. Items
// matching neither are skipped. It returns the number of items
// restored.
func (s *Session) ImportProgress(doc ExportData) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	restored := 0
	for _, ei := range doc.Items {
		i, ok := s.byID[ei.ID]
		if !ok && ei.GUID != "" {
			i, ok = s.byGUID[ei.GUID]
		}
		if !ok {
			continue
		}
		status := ei.Status
		if status == "" {
			status = StatusNotVerified
		}
		s.items[i].Status = NormalizeStatus(string(status))
		s.items[i].Comment = ei.Comment
		s.items[i].ReviewedAt = ei.ReviewedAt
		s.items[i].ReviewedBy = ei.ReviewedBy
		restored++
	}
	return restored
}

// DecodeUpload validates an uploaded progress file and returns its entries.
// The assessment type is empty for a bare item array.
func DecodeUpload(data []byte) (AssessmentType, []ProgressEntry, error) {
	if err := ValidateUpload(data); err != nil {
		return "", nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []ProgressEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return "", nil, fmt.Errorf("decode progress: %w", err)
		}
		return "", entries, nil
	}
	var doc struct {
		AssessmentType AssessmentType  `json:"assessmentType"`
		Items          []ProgressEntry `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return "", nil, fmt.Errorf("decode progress: %w", err)
	}
	return doc.AssessmentType, doc.Items, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
