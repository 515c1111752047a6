// Package ingest drives bulk polygon imports from KML/KMZ exports: parse the
// placemarks, reconcile their names against the store registry, and append
// polygon versions for confident matches.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/geometry"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/ingest/kml"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/ingest/normalize"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/polygons"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db/models"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/logger"
)

type storeRegistry interface {
	List(ctx context.Context, activeOnly bool) ([]models.Store, error)
}

type versionWriter interface {
	CreateVersion(ctx context.Context, input polygons.CreateVersionInput) (*polygons.VersionDTO, error)
}

// Options control one import run.
type Options struct {
	// Commit appends polygon versions for confident matches. When false the
	// run is a dry run and only the report is produced.
	Commit bool
	// MinConfidence is the floor for committing a match. Matches below it
	// are reported but never written.
	MinConfidence float64
}

// Entry is the per-placemark outcome of an import run.
type Entry struct {
	PlacemarkName      string            `json:"placemark_name"`
	PolygonType        enums.PolygonType `json:"polygon_type"`
	StoreID            *uuid.UUID        `json:"store_id,omitempty"`
	StoreName          string            `json:"store_name,omitempty"`
	Strategy           string            `json:"strategy"`
	Confidence         float64           `json:"confidence"`
	RingPoints         int               `json:"ring_points"`
	SkippedCoordinates int               `json:"skipped_coordinates,omitempty"`
	Committed          bool              `json:"committed"`
	Reason             string            `json:"reason,omitempty"`
}

// Report summarizes an import run. Stores counts the point placemarks found
// alongside the polygons; they inform the report but are never written.
type Report struct {
	Source    string  `json:"source"`
	Entries   []Entry `json:"entries"`
	Stores    int     `json:"stores"`
	Total     int     `json:"total"`
	Matched   int     `json:"matched"`
	Committed int     `json:"committed"`
	Skipped   int     `json:"skipped"`
}

// Service runs imports.
type Service struct {
	stores   storeRegistry
	versions versionWriter
	matcher  *normalize.Matcher
	logg     *logger.Logger
}

// NewService wires an importer.
func NewService(stores storeRegistry, versions versionWriter, matcher *normalize.Matcher, logg *logger.Logger) (*Service, error) {
	if stores == nil {
		return nil, fmt.Errorf("store registry required")
	}
	if versions == nil {
		return nil, fmt.Errorf("version writer required")
	}
	if matcher == nil {
		matcher = normalize.NewMatcher(0)
	}
	return &Service{stores: stores, versions: versions, matcher: matcher, logg: logg}, nil
}

// RunFile parses the given KML/KMZ file and processes its placemarks.
func (s *Service) RunFile(ctx context.Context, path string, opts Options) (*Report, error) {
	doc, err := kml.ParseFile(path)
	if err != nil {
		return nil, err
	}
	report, err := s.Process(ctx, doc, opts)
	if report != nil {
		report.Source = path
	}
	return report, err
}

// Process reconciles the document's polygon placemarks and, when committing,
// appends polygon versions for confident matches. Commit failures do not
// stop the run; they are aggregated into the returned error.
func (s *Service) Process(ctx context.Context, doc *kml.Document, opts Options) (*Report, error) {
	records, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Entries: make([]Entry, 0, len(doc.Polygons)),
		Stores:  len(doc.Stores),
		Total:   len(doc.Polygons),
	}
	var commitErrs error

	for _, pm := range doc.Polygons {
		entry := Entry{
			PlacemarkName:      pm.Name,
			PolygonType:        kml.InferPolygonType(pm.Name),
			RingPoints:         len(pm.Ring),
			SkippedCoordinates: pm.SkippedCoordinates,
			Strategy:           normalize.StrategyUnmatched,
		}

		ring, ringErr := geometry.ValidateRing(pm.Ring)
		if ringErr != nil {
			entry.Reason = "invalid ring: " + ringErr.Error()
			report.Entries = append(report.Entries, entry)
			report.Skipped++
			s.warn(ctx, pm.Name, entry.Reason)
			continue
		}

		match := s.matcher.Match(pm.Name, records)
		entry.Strategy = match.Strategy
		entry.Confidence = match.Confidence
		if !match.Matched() {
			entry.Reason = "no matching store"
			report.Entries = append(report.Entries, entry)
			report.Skipped++
			s.warn(ctx, pm.Name, entry.Reason)
			continue
		}
		entry.StoreID = &match.Store.ID
		entry.StoreName = match.Store.Name
		report.Matched++

		if match.Confidence < opts.MinConfidence {
			entry.Reason = fmt.Sprintf("confidence %.2f below floor %.2f", match.Confidence, opts.MinConfidence)
			report.Entries = append(report.Entries, entry)
			report.Skipped++
			continue
		}

		if opts.Commit {
			notes := fmt.Sprintf("imported from placemark %q (%s, confidence %.2f)", pm.Name, match.Strategy, match.Confidence)
			_, createErr := s.versions.CreateVersion(ctx, polygons.CreateVersionInput{
				StoreID:     match.Store.ID,
				PolygonType: entry.PolygonType,
				Ring:        ring,
				Notes:       &notes,
			})
			if createErr != nil {
				entry.Reason = "commit failed: " + createErr.Error()
				commitErrs = multierr.Append(commitErrs, fmt.Errorf("placemark %q: %w", pm.Name, createErr))
			} else {
				entry.Committed = true
				report.Committed++
			}
		}

		report.Entries = append(report.Entries, entry)
	}

	return report, commitErrs
}

func (s *Service) registry(ctx context.Context) ([]normalize.StoreRecord, error) {
	rows, err := s.stores.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("loading store registry: %w", err)
	}
	records := make([]normalize.StoreRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, normalize.StoreRecord{
			ID:             row.ID,
			Code:           row.Code,
			Name:           row.Name,
			NormalizedName: row.NormalizedName,
		})
	}
	return records, nil
}

func (s *Service) warn(ctx context.Context, placemark, reason string) {
	if s.logg == nil {
		return
	}
	fields := map[string]any{"placemark": placemark, "reason": reason}
	s.logg.Warn(s.logg.WithFields(ctx, fields), "placemark skipped")
}
