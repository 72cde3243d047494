package model

import "time"

// FireRecord is one normalized thermal anomaly detection.
type FireRecord struct {
	ID         string    `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Brightness float64   `json:"brightness"`
	Confidence float64   `json:"confidence"`
	AcqDate    string    `json:"acq_date"`
	Satellite  string    `json:"satellite"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FirePoint is the subset of a FireRecord needed to aggregate detections by region.
type FirePoint struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Brightness float64 `json:"brightness"`
	Confidence float64 `json:"confidence"`
}

// RegionStats holds aggregated detection statistics for one region.
type RegionStats struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	AvgBrightness float64 `json:"avg_brightness"`
	AvgConfidence float64 `json:"avg_confidence"`
}
