package models

// ZoneSearchRequest asks the discovery service for candidate zones.
type ZoneSearchRequest struct {
	Symbol    string `json:"symbol" validate:"required"`
	Timeframe string `json:"timeframe" default:"1w" validate:"oneof=1M 1w 1d 4h 1h"`
}

// PushZonesRequest stores a selection of discovered zones as trigger levels.
type PushZonesRequest struct {
	Symbol          string `json:"symbol" validate:"required"`
	Timeframe       string `json:"timeframe" default:"1w" validate:"oneof=1M 1w 1d 4h 1h"`
	SelectedIndices []int  `json:"selected_indices" validate:"required,min=1"`
	Zones           []Zone `json:"zones" validate:"required,min=1,dive"`
}

// UpdateAlertRequest flips one level's alert flag. Pointers distinguish a
// zero value from an omitted field.
type UpdateAlertRequest struct {
	LevelIndex *int  `json:"level_index" validate:"required"`
	Disabled   *bool `json:"disabled" validate:"required"`
}
