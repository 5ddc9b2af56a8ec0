// Package arcgis reads layer metadata and features from an ArcGIS REST layer endpoint.
package arcgis

import (
	"encoding/json"
	"fmt"

	"github.com/joeblew999/plat-symbology/internal/symbology"
)

// Layer is the parsed subset of a layer's ?f=json document.
type Layer struct {
	Name         string                    `json:"name" doc:"Layer name" example:"Road Classification"`
	GeometryType string                    `json:"geometryType" doc:"ArcGIS geometry type" example:"esriGeometryPolyline"`
	RendererType string                    `json:"rendererType" doc:"Renderer variant" example:"uniqueValue"`
	Field        string                    `json:"field" doc:"Renderer discriminant field (field1)" example:"current_st"`
	Entries      []symbology.RendererEntry `json:"entries" doc:"Unique value entries in source order"`
}

type layerDocument struct {
	Name         string        `json:"name"`
	GeometryType string        `json:"geometryType"`
	DrawingInfo  *drawingInfo  `json:"drawingInfo"`
	Error        *ServiceError `json:"error"`
}

type drawingInfo struct {
	Renderer *renderer `json:"renderer"`
}

type renderer struct {
	Type             string             `json:"type"`
	Field1           string             `json:"field1"`
	UniqueValueInfos *[]uniqueValueInfo `json:"uniqueValueInfos"`
}

// uniqueValueInfo.Value is numeric when the renderer field is numeric.
type uniqueValueInfo struct {
	Value  any     `json:"value"`
	Label  string  `json:"label"`
	Symbol *symbol `json:"symbol"`
}

type symbol struct {
	Color []float64 `json:"color"`
	Width float64   `json:"width"`
}

// ParseLayer decodes a layer metadata document.
func ParseLayer(body []byte) (*Layer, error) {
	var doc layerDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Error != nil {
		return nil, doc.Error
	}
	if doc.DrawingInfo == nil {
		return nil, ErrNoDrawingInfo
	}
	r := doc.DrawingInfo.Renderer
	if r == nil {
		return nil, ErrNoRenderer
	}
	if r.UniqueValueInfos == nil {
		return nil, ErrNoUniqueValues
	}

	entries := make([]symbology.RendererEntry, 0, len(*r.UniqueValueInfos))
	for _, info := range *r.UniqueValueInfos {
		e := symbology.RendererEntry{
			Value: symbology.Discriminant(info.Value),
			Label: info.Label,
		}
		if info.Symbol != nil {
			e.Symbol = symbology.Symbol{
				Color: symbology.Color(info.Symbol.Color),
				Width: info.Symbol.Width,
			}
		}
		entries = append(entries, e)
	}

	return &Layer{
		Name:         doc.Name,
		GeometryType: doc.GeometryType,
		RendererType: r.Type,
		Field:        r.Field1,
		Entries:      entries,
	}, nil
}
