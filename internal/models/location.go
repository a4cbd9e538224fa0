package models

// Location is an optional geographic point attached to an entity.
type Location struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	PlaceName string  `json:"place_name,omitempty"`
}

// Marker is the lightweight projection used for map rendering.
type Marker struct {
	Kind  Kind    `json:"kind"`
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}
