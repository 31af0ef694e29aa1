package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
)

// TypeMain selects the combined main checklist.
const TypeMain AssessmentType = "main"

// CatalogEntry describes one loadable reference checklist.
type CatalogEntry struct {
	Type AssessmentType
	Name string
}

// Catalog lists the assessment types that have a reference checklist.
func Catalog() []CatalogEntry {
	return []CatalogEntry{
		{TypeMain, "Complete ALZ Assessment (Main Checklist)"},
		{"alz", "Azure Landing Zone"},
		{"ai_lz", "AI Landing Zone"},
		{"aks", "Azure Kubernetes Service"},
		{"appsvc", "App Service"},
		{"avd", "Azure Virtual Desktop"},
		{"apim", "API Management"},
		{"acr", "Azure Container Registry"},
		{"adf", "Azure Data Factory"},
		{"aro", "Azure Red Hat OpenShift"},
		{"azfun", "Azure Functions"},
		{"cosmosdb", "Cosmos DB"},
		{"databricks", "Azure Databricks"},
		{"eh", "Event Hubs"},
		{"keyvault", "Key Vault"},
		{"mysql", "MySQL"},
		{"postgreSQL", "PostgreSQL"},
		{"redis", "Redis Cache"},
		{"security", "Security"},
		{"sqldb", "SQL Database"},
		{"azure_storage", "Azure Storage"},
	}
}

// CatalogName returns the display name of t, or t itself when unknown.
func CatalogName(t AssessmentType) string {
	for _, e := range Catalog() {
		if e.Type == t {
			return e.Name
		}
	}
	return string(t)
}

// Metadata summarizes a loaded checklist.
type Metadata struct {
	TotalItems    int       `json:"totalItems"`
	Categories    []string  `json:"categories"`
	Subcategories []string  `json:"subcategories"`
	Services      []string  `json:"services"`
	Severities    []string  `json:"severities"`
	LoadedAt      time.Time `json:"loadedAt"`
	Version       string    `json:"version"`
}

// Checklist is a reference checklist with its metadata.
type Checklist struct {
	Type     AssessmentType  `json:"type"`
	Items    []ReferenceItem `json:"items"`
	Metadata Metadata        `json:"metadata"`
}

// NewChecklist builds a checklist and derives its metadata.
func NewChecklist(t AssessmentType, items []ReferenceItem, version string) *Checklist {
	if version == "" {
		version = "1.0"
	}
	cl := &Checklist{Type: t, Items: make([]ReferenceItem, len(items))}
	copy(cl.Items, items)
	cl.Metadata = Metadata{
		TotalItems:    len(items),
		Categories:    distinct(items, func(r ReferenceItem) string { return r.Category }),
		Subcategories: distinct(items, func(r ReferenceItem) string { return r.Subcategory }),
		Services:      distinct(items, func(r ReferenceItem) string { return r.Service }),
		Severities:    distinct(items, func(r ReferenceItem) string { return r.Severity }),
		LoadedAt:      time.Now().UTC(),
		Version:       version,
	}
	return cl
}

func distinct(items []ReferenceItem, key func(ReferenceItem) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, it := range items {
		v := key(it)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ChecklistLoader supplies reference checklists by assessment type.
type ChecklistLoader interface {
	Load(ctx context.Context, t AssessmentType) (*Checklist, error)
}

// FileLoader reads reference checklists from JSON files on disk.
type FileLoader struct {
	Dir      string
	MainPath string
	logger   *zap.Logger
}

// NewFileLoader returns a loader rooted at the configured checklist paths.
func NewFileLoader(cfg Config, logger *zap.Logger) *FileLoader {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileLoader{Dir: cfg.ChecklistDir, MainPath: cfg.MainChecklistPath, logger: logger}
}

// Path returns the file the loader reads for t.
func (l *FileLoader) Path(t AssessmentType) string {
	if t == TypeMain || t == "" {
		return l.MainPath
	}
	return filepath.Join(l.Dir, fmt.Sprintf("%s_checklist.en.json", t))
}

// Load reads, validates and decodes the checklist for t.
func (l *FileLoader) Load(ctx context.Context, t AssessmentType) (*Checklist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := l.Path(t)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checklist %s: %w", filepath.Base(path), err)
	}
	cl, err := DecodeChecklist(t, data)
	if err != nil {
		return nil, fmt.Errorf("checklist %s: %w", filepath.Base(path), err)
	}
	l.logger.Info("checklist loaded",
		zap.String("type", string(t)),
		zap.String("path", path),
		zap.Int("items", len(cl.Items)))
	return cl, nil
}

type checklistFile struct {
	Version json.RawMessage `json:"version"`
	Items   []ReferenceItem `json:"items"`
}

// DecodeChecklist validates and decodes checklist JSON.
func DecodeChecklist(t AssessmentType, data []byte) (*Checklist, error) {
	if err := ValidateChecklistJSON(data); err != nil {
		return nil, err
	}
	var raw checklistFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode checklist: %w", err)
	}
	if len(raw.Items) == 0 {
		return nil, errors.New("checklist has no items")
	}
	return NewChecklist(t, raw.Items, versionString(raw.Version)), nil
}

func versionString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// StaticLoader serves checklists held in memory.
type StaticLoader map[AssessmentType]*Checklist

// Load returns the checklist registered for t.
func (s StaticLoader) Load(_ context.Context, t AssessmentType) (*Checklist, error) {
	cl, ok := s[t]
	if !ok {
		return nil, fmt.Errorf("no checklist for %q", t)
	}
	return cl, nil
}
