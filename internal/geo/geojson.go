package geo

import (
	"encoding/json"
	"fmt"
)

// geoJSONPolygon is the persisted form: a GeoJSON Polygon with a single
// linear ring of [lng, lat] positions, closing vertex included.
type geoJSONPolygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// Encode serializes a polygon to GeoJSON. The ring is closed on the wire;
// Decode(Encode(p)) returns p exactly for any polygon accepted by Validate.
func Encode(p Polygon) (string, error) {
	if len(p) < MinVertices {
		return "", &ValidationError{Vertex: -1, Reason: fmt.Sprintf("needs at least %d vertices, got %d", MinVertices, len(p))}
	}

	ring := make([][2]float64, 0, len(p)+1)
	for _, pt := range p {
		ring = append(ring, [2]float64{pt.Lng, pt.Lat})
	}
	ring = append(ring, [2]float64{p[0].Lng, p[0].Lat})

	raw, err := json.Marshal(geoJSONPolygon{Type: "Polygon", Coordinates: [][][2]float64{ring}})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode parses a persisted GeoJSON Polygon back into the in-memory
// vertex sequence. Any malformed input is reported as a ValidationError
// rather than a bare parse error.
func Decode(raw string) (Polygon, error) {
	var g geoJSONPolygon
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, &ValidationError{Vertex: -1, Reason: "malformed GeoJSON: " + err.Error()}
	}
	if g.Type != "Polygon" {
		return nil, &ValidationError{Vertex: -1, Reason: fmt.Sprintf("unsupported GeoJSON type %q", g.Type)}
	}
	if len(g.Coordinates) != 1 {
		return nil, &ValidationError{Vertex: -1, Reason: fmt.Sprintf("expected a single ring, got %d", len(g.Coordinates))}
	}

	ring := g.Coordinates[0]
	if len(ring) < MinVertices+1 {
		return nil, &ValidationError{Vertex: -1, Reason: fmt.Sprintf("ring needs at least %d positions, got %d", MinVertices+1, len(ring))}
	}
	if ring[0] != ring[len(ring)-1] {
		return nil, &ValidationError{Vertex: len(ring) - 1, Reason: "ring is not closed"}
	}

	p := make(Polygon, 0, len(ring)-1)
	for _, pos := range ring[:len(ring)-1] {
		p = append(p, Point{Lat: pos[1], Lng: pos[0]})
	}
	return p, nil
}
