package engine

// ProgressSystem refreshes the cached display progress of every cooldown.
type ProgressSystem struct{}

// NewProgressSystem creates a progress system.
func NewProgressSystem() *ProgressSystem {
	return &ProgressSystem{}
}

// Run sets Progress = 1 - TimeLeft/Duration for each business.
func (ps *ProgressSystem) Run(reg *Registry) {
	for _, b := range reg.All() {
		b.Progress = b.Cooldown.DisplayProgress()
	}
}
