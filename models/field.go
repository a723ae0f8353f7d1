package models

// Field is a monitored plot. Status and color tokens are never stored here;
// they are derived from Health by the classifier whenever a field is rendered.
type Field struct {
	ID             string  `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	Area           string  `json:"area" yaml:"area"`
	Crop           string  `json:"crop" yaml:"crop"`
	Health         float64 `json:"health" yaml:"health"`
	NDVI           float64 `json:"ndvi" yaml:"ndvi"`
	SoilMoisture   float64 `json:"soilMoisture" yaml:"soilMoisture"`
	Temperature    float64 `json:"temperature" yaml:"temperature"`
	PestRisk       float64 `json:"pestRisk" yaml:"pestRisk"`
	Alerts         int     `json:"alerts" yaml:"alerts"`
	Alert          string  `json:"alert,omitempty" yaml:"alert,omitempty"`
	LastScan       string  `json:"lastScan" yaml:"lastScan"`
	LastInspection string  `json:"lastInspection" yaml:"lastInspection"`
	NextInspection string  `json:"nextInspection" yaml:"nextInspection"`
}

func (f Field) GetID() string { return f.ID }

type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

type Alert struct {
	ID              string      `json:"id" yaml:"id"`
	Type            string      `json:"type" yaml:"type"` // pest, moisture, temperature, weather
	Severity        Severity    `json:"severity" yaml:"severity"`
	Title           string      `json:"title" yaml:"title"`
	Description     string      `json:"description" yaml:"description"`
	Field           string      `json:"field" yaml:"field"`
	Time            string      `json:"time" yaml:"time"`
	Status          AlertStatus `json:"status" yaml:"status"`
	Recommendations []string    `json:"recommendations" yaml:"recommendations"`
}

func (a Alert) GetID() string { return a.ID }

type Report struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Type    string `json:"type" yaml:"type"`
	Date    string `json:"date" yaml:"date"`
	Size    string `json:"size" yaml:"size"`
	Color   string `json:"color" yaml:"color"`
	Period  string `json:"period" yaml:"period"` // daily, weekly, monthly, yearly
	Summary string `json:"summary" yaml:"summary"`
}

func (r Report) GetID() string { return r.ID }

type ReportMetric struct {
	Label  string `json:"label" yaml:"label"`
	Value  string `json:"value" yaml:"value"`
	Change string `json:"change" yaml:"change"`
}

type SensorReading struct {
	Label  string `json:"label" yaml:"label"`
	Value  string `json:"value" yaml:"value"`
	Trend  string `json:"trend" yaml:"trend"`
	Status string `json:"status" yaml:"status"` // optimal, good, warning
}

type LandingStat struct {
	Value       string `json:"value" yaml:"value"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// MapLayer selects which field metric the map colors by and which
// classification scheme turns that metric into a tier.
type MapLayer struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Metric      string `json:"metric" yaml:"metric"`
	Scheme      string `json:"scheme" yaml:"scheme"`
}

// Metric returns the field's value for a map layer metric name.
func (f Field) Metric(name string) (float64, bool) {
	switch name {
	case "health":
		return f.Health, true
	case "ndvi":
		return f.NDVI * 100, true
	case "soilMoisture":
		return f.SoilMoisture, true
	case "temperature":
		return f.Temperature, true
	case "pestRisk":
		return f.PestRisk, true
	}
	return 0, false
}
