package engine

// Forklift holds the player's energy budget
type Forklift struct {
	energy int
}

// NewForklift creates a forklift with the given starting energy
func NewForklift(energy int) *Forklift {
	return &Forklift{energy: energy}
}

// Energy returns the remaining energy; negative once the budget is overspent
func (f *Forklift) Energy() int {
	return f.energy
}

// DecreaseEnergy consumes one unit, called once per successful move
func (f *Forklift) DecreaseEnergy() {
	f.energy--
}

// IncreaseEnergy adds one unit (power-up hook)
func (f *Forklift) IncreaseEnergy() {
	f.energy++
}
