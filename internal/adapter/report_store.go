package adapter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	m "tesc.dev/pkg/tesc/internal/model"
)

// ReportStore persists run reports.
type ReportStore interface {
	Save(path string, report m.RunReport) error
}

// YAMLReportStore writes run reports as YAML files.
type YAMLReportStore struct{}

// NewYAMLReportStore constructs a YAMLReportStore.
func NewYAMLReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// Save implements ReportStore.
func (s *YAMLReportStore) Save(path string, report m.RunReport) error {
	for i := range report.Tests {
		report.Tests[i].StatusText = report.Tests[i].Status.String()
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding run report: %w", err)
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}

	return nil
}
