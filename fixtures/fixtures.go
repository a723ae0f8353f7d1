// Package fixtures carries the static demo data the screens are built on.
package fixtures

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"cropwatch/models"
)

//go:embed data.yaml
var raw []byte

type Data struct {
	Fields        []models.Field         `yaml:"fields"`
	Alerts        []models.Alert         `yaml:"alerts"`
	Reports       []models.Report        `yaml:"reports"`
	ReportMetrics []models.ReportMetric  `yaml:"reportMetrics"`
	Sensors       []models.SensorReading `yaml:"sensors"`
	Landing       []models.LandingStat   `yaml:"landing"`
	Layers        []models.MapLayer      `yaml:"layers"`
	Images        []models.FieldImage    `yaml:"images"`
}

// Load decodes the embedded fixture set. Every call returns fresh copies.
func Load() (*Data, error) {
	return Decode(raw)
}

// Decode parses a fixture document, rejecting unknown keys.
func Decode(b []byte) (*Data, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var d Data
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	for i := range d.Images {
		if d.Images[i].Tags == nil {
			d.Images[i].Tags = []string{}
		}
		if !d.Images[i].Status.Valid() {
			return nil, fmt.Errorf("image %s: unknown status %q", d.Images[i].ID, d.Images[i].Status)
		}
	}
	return &d, nil
}
