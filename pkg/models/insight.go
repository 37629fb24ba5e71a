package models

import (
	"strings"
	"time"
)

// ClassificationSource tags which backend produced a classification.
type ClassificationSource string

const (
	SourceBaseClassifier         ClassificationSource = "base"
	SourceSupplementalClassifier ClassificationSource = "supplemental"
	SourceFused                  ClassificationSource = "fused"
)

// ClassificationResult is a single ranked label from one classification backend.
type ClassificationResult struct {
	Label      string               `json:"label"`
	Confidence float64              `json:"confidence"`
	Source     ClassificationSource `json:"source"`
}

// NormalizedLabel returns the label form used for cross-source agreement:
// lower-cased and whitespace-trimmed.
func (c ClassificationResult) NormalizedLabel() string {
	return strings.ToLower(strings.TrimSpace(c.Label))
}

// UnitKind identifies one analysis capability.
type UnitKind string

const (
	UnitClassification         UnitKind = "classification"
	UnitSupplementalClassifier UnitKind = "supplemental_classification"
	UnitObjectDetection        UnitKind = "object_detection"
	UnitScene                  UnitKind = "scene"
	UnitText                   UnitKind = "text"
	UnitColor                  UnitKind = "color"
	UnitSaliency               UnitKind = "saliency"
	UnitLandmark               UnitKind = "landmark"
	UnitBarcode                UnitKind = "barcode"
	UnitHorizon                UnitKind = "horizon"
)

// UnitStatus records how an analyzer invocation settled.
type UnitStatus string

const (
	StatusSuccess UnitStatus = "success"
	StatusFailed  UnitStatus = "failed"
	StatusTimeout UnitStatus = "timeout"
	StatusSkipped UnitStatus = "skipped"
)

// Settled reports whether the unit carries a usable payload.
func (s UnitStatus) Settled() bool { return s == StatusSuccess }

// BoundingBox is a normalized region of interest, coordinates in [0,1].
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectedObject is one localized object with a label and confidence.
type DetectedObject struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// SceneResult describes the overall scene category of the image.
type SceneResult struct {
	Labels []ClassificationResult `json:"labels"`
}

// TextResult carries recognized text plus optional match scoring against
// an expected string.
type TextResult struct {
	Text          string  `json:"text"`
	Confidence    float64 `json:"confidence"`
	ExpectedText  string  `json:"expected_text,omitempty"`
	MatchDistance int     `json:"match_distance,omitempty"`
	WordErrorRate float64 `json:"word_error_rate,omitempty"`
}

// ColorProfile summarizes the dominant colors and global color statistics.
type ColorProfile struct {
	DominantColors []string   `json:"dominant_colors"`
	AvgLuminance   float64    `json:"average_luminance"`
	AvgSaturation  float64    `json:"average_saturation"`
	ChannelBalance [3]float64 `json:"channel_balance"`
	Monochrome     bool       `json:"monochrome"`
}

// SaliencyResult points at the most visually prominent region.
type SaliencyResult struct {
	AttentionBox BoundingBox `json:"attention_box"`
	Score        float64     `json:"score"`
}

// Landmark is a recognized point of interest.
type Landmark struct {
	Name       string      `json:"name"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// Barcode is a detected machine-readable code.
type Barcode struct {
	Symbology string      `json:"symbology"`
	Box       BoundingBox `json:"box"`
}

// HorizonResult estimates the horizon line tilt.
type HorizonResult struct {
	AngleDegrees float64 `json:"angle_degrees"`
	YOffset      float64 `json:"y_offset"`
}

// AnalysisUnit is the settled output of one analyzer invocation. Exactly one
// payload field is populated, matching Kind, when Status is success.
type AnalysisUnit struct {
	Kind    UnitKind      `json:"kind"`
	Status  UnitStatus    `json:"status"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`

	Classifications []ClassificationResult `json:"classifications,omitempty"`
	Objects         []DetectedObject       `json:"objects,omitempty"`
	Scene           *SceneResult           `json:"scene,omitempty"`
	Text            *TextResult            `json:"text,omitempty"`
	Color           *ColorProfile          `json:"color,omitempty"`
	Saliency        *SaliencyResult        `json:"saliency,omitempty"`
	Landmarks       []Landmark             `json:"landmarks,omitempty"`
	Barcodes        []Barcode              `json:"barcodes,omitempty"`
	Horizon         *HorizonResult         `json:"horizon,omitempty"`
}

// AbsentUnit builds the unit recorded for an analyzer that failed, timed out,
// or was skipped for the active backend mode.
func AbsentUnit(kind UnitKind, status UnitStatus, err error) AnalysisUnit {
	u := AnalysisUnit{Kind: kind, Status: status}
	if err != nil {
		u.Error = err.Error()
	}
	return u
}

// Diagnostics is the observability snapshot attached to every result.
type Diagnostics struct {
	Mode         string                  `json:"mode"`
	ElapsedSec   float64                 `json:"elapsed_sec"`
	UnitStatuses map[UnitKind]UnitStatus `json:"unit_statuses"`
	CacheHit     bool                    `json:"cache_hit"`
}

// ImageAnalysisResult aggregates all settled units plus the fused
// classification list. Immutable once constructed.
type ImageAnalysisResult struct {
	ID         string    `json:"id"`
	SourcePath string    `json:"source_path,omitempty"`
	Timestamp  time.Time `json:"timestamp"`

	FusedClassifications []ClassificationResult `json:"fused_classifications"`
	Units                []AnalysisUnit         `json:"units"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// Unit returns the unit of the given kind, if present.
func (r *ImageAnalysisResult) Unit(kind UnitKind) (AnalysisUnit, bool) {
	for _, u := range r.Units {
		if u.Kind == kind {
			return u, true
		}
	}
	return AnalysisUnit{}, false
}

// SettledUnits counts units that produced a usable payload.
func (r *ImageAnalysisResult) SettledUnits() int {
	n := 0
	for _, u := range r.Units {
		if u.Status.Settled() {
			n++
		}
	}
	return n
}

// ApproxCost estimates the in-memory footprint of the result for cache
// accounting. Deliberately coarse.
func (r *ImageAnalysisResult) ApproxCost() int64 {
	cost := int64(256)
	cost += int64(len(r.FusedClassifications)) * 64
	for _, u := range r.Units {
		cost += 128
		cost += int64(len(u.Classifications)+len(u.Objects)+len(u.Landmarks)+len(u.Barcodes)) * 64
		if u.Text != nil {
			cost += int64(len(u.Text.Text))
		}
	}
	return cost
}
