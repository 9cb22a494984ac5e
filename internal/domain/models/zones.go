package models

// Zone is a candidate support zone returned by the zone-discovery service.
// Consumed as-is; the discovery algorithm is external.
type Zone struct {
	Index        int     `json:"index"`
	Top          float64 `json:"top" validate:"gt=0"`
	Bottom       float64 `json:"bottom" validate:"gte=0"`
	Date         string  `json:"date"`
	RallyLength  int     `json:"rally_length" validate:"gte=0"`
	TotalMovePct float64 `json:"total_move_pct"`
}
