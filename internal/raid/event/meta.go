package event

// Meter bounds. Noise and threat climb toward certain violence; bonus is
// banked goodwill spent on extra reward rolls when a chain resolves.
const (
	noiseMax  = 10
	threatMax = 10
	bonusMax  = 5
)

// Meta carries the raid-wide exploration meters.
type Meta struct {
	Noise  int `json:"noise"`
	Threat int `json:"threat"`
	Bonus  int `json:"bonus"`
}

// Clamp forces every meter back into its band.
func (m *Meta) Clamp() {
	m.Noise = clamp(m.Noise, 0, noiseMax)
	m.Threat = clamp(m.Threat, 0, threatMax)
	m.Bonus = clamp(m.Bonus, 0, bonusMax)
}

// AddNoise shifts the noise meter, clamped.
func (m *Meta) AddNoise(delta int) {
	m.Noise = clamp(m.Noise+delta, 0, noiseMax)
}

// AddThreat shifts the threat meter, clamped.
func (m *Meta) AddThreat(delta int) {
	m.Threat = clamp(m.Threat+delta, 0, threatMax)
}

// AddBonus shifts the bonus meter, clamped.
func (m *Meta) AddBonus(delta int) {
	m.Bonus = clamp(m.Bonus+delta, 0, bonusMax)
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
