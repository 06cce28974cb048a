package model

// Band is a tick range for a position, lower inclusive and upper exclusive.
type Band struct {
	TickLower int `json:"tick_lower"`
	TickUpper int `json:"tick_upper"`
}

// Width returns the band width in ticks.
func (b Band) Width() int {
	return b.TickUpper - b.TickLower
}
