// internal/domain/models/inquiry.go
package models

// Location is a resolved coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Doc returns the nested document stored under an inquiry's "location" field.
func (l Location) Doc() map[string]any {
	return map[string]any{
		"latitude":  l.Latitude,
		"longitude": l.Longitude,
	}
}

// Inquiry is a request for volunteer help kept in the "inquiry" collection.
// Location is nil until the geocode backfill resolves Address and City.
type Inquiry struct {
	ID           string    `json:"id"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Location     *Location `json:"location,omitempty"`
	Description  string    `json:"description,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	ContactName  string    `json:"contactName,omitempty"`
	ContactPhone string    `json:"contactPhone,omitempty"`
	Status       string    `json:"status,omitempty"`
	CreatedAt    string    `json:"createdAt,omitempty"`
}

// HasLocation reports whether coordinates have already been stored.
func (i Inquiry) HasLocation() bool {
	return i.Location != nil
}

// Geocodable reports whether the inquiry carries enough address data to look up.
func (i Inquiry) Geocodable() bool {
	return i.Address != "" && i.City != ""
}
