package annotation

import (
	"markcanvas/internal/shape"
	"markcanvas/pkg/geometry"
)

// LabelData is the host's answer to a label request.
type LabelData struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Record is the exchange format for a committed object.
type Record struct {
	Index     int                `json:"index"`
	Type      shape.Kind         `json:"type"`
	Label     string             `json:"label"`
	Color     string             `json:"color"`
	PointList []geometry.Point2D `json:"pointList"`
}

// Info summarises an object for host listings.
type Info struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Color     string             `json:"color"`
	Type      shape.Kind         `json:"type"`
	Index     int                `json:"index"`
	PointList []geometry.Point2D `json:"pointList"`
	Select    bool               `json:"select"`
}

// Export returns the object's record.
func (o *Object) Export() Record {
	return Record{
		Index:     o.index,
		Type:      o.kind,
		Label:     o.label,
		Color:     o.color,
		PointList: o.Points(),
	}
}

// Info returns the object's summary.
func (o *Object) Info() Info {
	return Info{
		ID:        o.id,
		Label:     o.label,
		Color:     o.color,
		Type:      o.kind,
		Index:     o.index,
		PointList: o.Points(),
		Select:    o.status == StatusEdit,
	}
}
