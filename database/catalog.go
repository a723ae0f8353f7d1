package database

import (
	"fmt"

	"cropwatch/apperr"
	"cropwatch/fixtures"
	"cropwatch/models"
)

// Catalog holds the read-mostly collections behind the dashboard, map,
// alerts and reports screens.
type Catalog struct {
	Fields  *Collection[models.Field]
	Alerts  *Collection[models.Alert]
	Reports *Collection[models.Report]

	Sensors       []models.SensorReading
	ReportMetrics []models.ReportMetric
	Landing       []models.LandingStat
	Layers        []models.MapLayer
}

func NewCatalog(d *fixtures.Data) (*Catalog, error) {
	c := &Catalog{
		Fields:        NewCollection[models.Field](nil),
		Alerts:        NewCollection(cloneAlert),
		Reports:       NewCollection[models.Report](nil),
		Sensors:       d.Sensors,
		ReportMetrics: d.ReportMetrics,
		Landing:       d.Landing,
		Layers:        d.Layers,
	}
	for _, f := range d.Fields {
		if err := c.Fields.Append(f); err != nil {
			return nil, fmt.Errorf("field %s: %w", f.ID, err)
		}
	}
	for _, a := range d.Alerts {
		if err := c.Alerts.Append(a); err != nil {
			return nil, fmt.Errorf("alert %s: %w", a.ID, err)
		}
	}
	for _, r := range d.Reports {
		if err := c.Reports.Append(r); err != nil {
			return nil, fmt.Errorf("report %s: %w", r.ID, err)
		}
	}
	return c, nil
}

// Layer returns the map layer with id.
func (c *Catalog) Layer(id string) (models.MapLayer, error) {
	for _, l := range c.Layers {
		if l.ID == id {
			return l, nil
		}
	}
	return models.MapLayer{}, fmt.Errorf("%w: layer %s", apperr.ErrNotFound, id)
}

// SetAlertStatus moves an alert to status.
func (c *Catalog) SetAlertStatus(id string, status models.AlertStatus) (models.Alert, error) {
	return c.Alerts.Update(id, func(a *models.Alert) error {
		a.Status = status
		return nil
	})
}

func cloneAlert(a models.Alert) models.Alert {
	a.Recommendations = append([]string(nil), a.Recommendations...)
	return a
}
