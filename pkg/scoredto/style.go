package scoredto

// StylePreset is a named style bundle.
type StylePreset struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// GlobalStyle carries the room-wide templates. CSSCard may contain the
// {GameBackground}, {GameColor} and {GameImage} placeholders.
type GlobalStyle struct {
	CSSBody string `json:"css_body"`
	CSSCard string `json:"css_card"`
}

// StylesUpdate is the styles_updated payload.
type StylesUpdate struct {
	RoomID  ID            `json:"roomID"`
	CSSBody string        `json:"css_body"`
	CSSCard string        `json:"css_card"`
	Presets []StylePreset `json:"presets"`
}
