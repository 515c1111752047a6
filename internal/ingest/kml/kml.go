// Package kml reads service-area polygons out of KML and KMZ exports.
package kml

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pkgerrors "github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/errors"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/types"
)

// Placemark is one named polygon lifted from an export.
type Placemark struct {
	Name        string
	Description string
	Folder      string
	Ring        types.Ring
	// SkippedCoordinates counts malformed coordinate tuples dropped while
	// parsing this placemark's ring.
	SkippedCoordinates int
}

// StorePoint is one single-point placemark, a store location pin.
type StorePoint struct {
	Name      string
	Folder    string
	Longitude float64
	Latitude  float64
}

// Document is the content of one KML file: store pins and coverage polygons.
type Document struct {
	Stores   []StorePoint
	Polygons []Placemark
}

type kmlPlacemark struct {
	Name        string       `xml:"name"`
	Description string       `xml:"description"`
	Polygons    []kmlPolygon `xml:"Polygon"`
	Multi       struct {
		Polygons []kmlPolygon `xml:"Polygon"`
	} `xml:"MultiGeometry"`
	Points []struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
}

type kmlPolygon struct {
	Outer struct {
		Coordinates string `xml:"LinearRing>coordinates"`
	} `xml:"outerBoundaryIs"`
}

// Parse reads every Placemark from a KML stream, regardless of folder
// nesting. Point placemarks become StorePoints, polygon placemarks become
// Placemarks, each tagged with its enclosing folder's name. Placemarks with
// neither geometry are ignored.
func Parse(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)
	doc := &Document{Stores: []StorePoint{}, Polygons: []Placemark{}}

	// Folder names by nesting depth. A folder's <name> child arrives before
	// its placemarks, so the top of the stack names the enclosing folder.
	var folders []string

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed KML document")
		}

		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == "Folder" && len(folders) > 0 {
				folders = folders[:len(folders)-1]
			}
			continue
		case xml.StartElement:
			switch t.Name.Local {
			case "Folder":
				folders = append(folders, "")
				continue
			case "name":
				if n := len(folders); n > 0 && folders[n-1] == "" {
					var v struct {
						Text string `xml:",chardata"`
					}
					if err := decoder.DecodeElement(&v, &t); err != nil {
						return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed Folder name")
					}
					folders[n-1] = strings.TrimSpace(v.Text)
				}
				continue
			case "Placemark":
				var pm kmlPlacemark
				if err := decoder.DecodeElement(&pm, &t); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed Placemark element")
				}
				collectPlacemark(doc, pm, enclosingFolder(folders))
			}
		}
	}
	return doc, nil
}

func enclosingFolder(folders []string) string {
	if len(folders) == 0 {
		return ""
	}
	return folders[len(folders)-1]
}

func collectPlacemark(doc *Document, pm kmlPlacemark, folder string) {
	name := strings.TrimSpace(pm.Name)

	for _, point := range pm.Points {
		coords, _ := parseCoordinates(point.Coordinates)
		if len(coords) == 0 {
			continue
		}
		doc.Stores = append(doc.Stores, StorePoint{
			Name:      name,
			Folder:    folder,
			Longitude: coords[0].Longitude,
			Latitude:  coords[0].Latitude,
		})
	}

	polygons := pm.Polygons
	if len(polygons) == 0 {
		polygons = pm.Multi.Polygons
	}
	if len(polygons) == 0 {
		return
	}
	ring, skipped := parseCoordinates(polygons[0].Outer.Coordinates)
	doc.Polygons = append(doc.Polygons, Placemark{
		Name:               name,
		Description:        strings.TrimSpace(pm.Description),
		Folder:             folder,
		Ring:               ring,
		SkippedCoordinates: skipped,
	})
}

// ParseKMZ unpacks a KMZ archive and parses the first .kml entry.
func ParseKMZ(r io.ReaderAt, size int64) (*Document, error) {
	archive, err := zip.NewReader(r, size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed KMZ archive")
	}
	for _, f := range archive.File {
		if !strings.EqualFold(filepath.Ext(f.Name), ".kml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading KMZ entry")
		}
		defer rc.Close()
		return Parse(rc)
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "KMZ archive contains no .kml entry")
}

// ParseFile dispatches on the file extension.
func ParseFile(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kml":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		return Parse(f)
	case ".kmz":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		return ParseKMZ(f, info.Size())
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported file extension, expected .kml or .kmz")
	}
}

// parseCoordinates reads a KML coordinate block: whitespace-separated
// "lon,lat[,alt]" tuples. Malformed tuples are skipped individually rather
// than failing the whole ring.
func parseCoordinates(raw string) (types.Ring, int) {
	ring := types.Ring{}
	skipped := 0
	for _, tuple := range strings.Fields(raw) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			skipped++
			continue
		}
		lon, lonErr := strconv.ParseFloat(parts[0], 64)
		lat, latErr := strconv.ParseFloat(parts[1], 64)
		if lonErr != nil || latErr != nil {
			skipped++
			continue
		}
		ring = append(ring, types.Coordinate{Longitude: lon, Latitude: lat})
	}
	return ring, skipped
}
