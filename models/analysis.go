package models

import (
	"time"
)

// ImageStatus is the lifecycle state of a field image.
type ImageStatus string

const (
	StatusPending  ImageStatus = "pending"
	StatusAnalyzed ImageStatus = "analyzed"
	StatusFlagged  ImageStatus = "flagged"
)

// Valid reports whether s is one of the known image states.
func (s ImageStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAnalyzed, StatusFlagged:
		return true
	}
	return false
}

// Severity of a detected issue or an alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type DetectedIssue struct {
	Type         string   `json:"type" yaml:"type"`
	Severity     Severity `json:"severity" yaml:"severity"`
	AffectedArea int      `json:"affectedArea" yaml:"affectedArea"` // percent of the imaged area
}

type EnvironmentalData struct {
	Temperature    int `json:"temperature" yaml:"temperature"`       // °C
	Humidity       int `json:"humidity" yaml:"humidity"`             // %
	WindSpeed      int `json:"windSpeed" yaml:"windSpeed"`           // km/h
	SolarRadiation int `json:"solarRadiation" yaml:"solarRadiation"` // W/m²
}

// AnalysisResult is owned by the image that embeds it and is always replaced
// as a whole, never patched field by field.
type AnalysisResult struct {
	HealthScore       int                `json:"healthScore" yaml:"healthScore"`
	NDVI              float64            `json:"ndvi" yaml:"ndvi"`
	Chlorophyll       int                `json:"chlorophyll" yaml:"chlorophyll"`
	Moisture          int                `json:"moisture" yaml:"moisture"`
	NitrogenLevel     int                `json:"nitrogenLevel" yaml:"nitrogenLevel"`
	PestRisk          int                `json:"pestRisk" yaml:"pestRisk"`
	DiseaseRisk       int                `json:"diseaseRisk" yaml:"diseaseRisk"`
	Recommendations   []string           `json:"recommendations" yaml:"recommendations"`
	DetectedIssues    []DetectedIssue    `json:"detectedIssues" yaml:"detectedIssues"`
	EnvironmentalData *EnvironmentalData `json:"environmentalData,omitempty" yaml:"environmentalData,omitempty"`
	Provider          string             `json:"provider,omitempty" yaml:"provider,omitempty"`
	GeneratedAt       time.Time          `json:"generatedAt" yaml:"generatedAt"`
}

// Clone returns a deep copy so callers can never mutate a stored result.
func (a *AnalysisResult) Clone() *AnalysisResult {
	if a == nil {
		return nil
	}
	out := *a
	out.Recommendations = append([]string(nil), a.Recommendations...)
	out.DetectedIssues = append([]DetectedIssue(nil), a.DetectedIssues...)
	if a.EnvironmentalData != nil {
		env := *a.EnvironmentalData
		out.EnvironmentalData = &env
	}
	return &out
}

type FieldImage struct {
	ID        string          `json:"id" yaml:"id" gorm:"primaryKey"`
	URL       string          `json:"url" yaml:"url"`
	Name      string          `json:"name" yaml:"name"`
	Date      string          `json:"date" yaml:"date"` // YYYY-MM-DD
	Location  string          `json:"location" yaml:"location"`
	Notes     string          `json:"notes" yaml:"notes"`
	Status    ImageStatus     `json:"status" yaml:"status" gorm:"index"`
	Tags      []string        `json:"tags" yaml:"tags" gorm:"serializer:json"`
	Analysis  *AnalysisResult `json:"analysis,omitempty" yaml:"analysis,omitempty" gorm:"serializer:json"`
	Seq       int64           `json:"-" yaml:"-" gorm:"index"`
	CreatedAt time.Time       `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time       `json:"updatedAt" yaml:"-"`
}

// GetID satisfies the keyed collection contract.
func (f FieldImage) GetID() string { return f.ID }

// Clone returns a deep copy of the image record.
func (f FieldImage) Clone() FieldImage {
	out := f
	out.Tags = append([]string{}, f.Tags...)
	out.Analysis = f.Analysis.Clone()
	return out
}

// ImageUpdate carries the user-editable metadata of an image. Status may only
// be raised to flagged; analyzed is reserved for completed analyses.
type ImageUpdate struct {
	Location *string      `json:"location"`
	Notes    *string      `json:"notes"`
	Tags     []string     `json:"tags" binding:"omitempty,max=20,dive,min=1,max=40"`
	Status   *ImageStatus `json:"status" binding:"omitempty,oneof=flagged"`
}

// Apply copies the set fields of u onto img.
func (u ImageUpdate) Apply(img *FieldImage) {
	if u.Location != nil {
		img.Location = *u.Location
	}
	if u.Notes != nil {
		img.Notes = *u.Notes
	}
	if u.Tags != nil {
		img.Tags = dedupe(u.Tags)
	}
	if u.Status != nil {
		img.Status = *u.Status
	}
}

// dedupe keeps tags set-like while preserving first-seen order.
func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
