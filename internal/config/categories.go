package config

// GroupWeights orders command groups in help listings.
var GroupWeights = map[string]int{
	"general":    0,
	"fun":        10,
	"moderation": 20,
	"developer":  30,
}

// GroupWeight returns the sort weight of a group; unknown groups go last.
func GroupWeight(group string) int {
	if w, ok := GroupWeights[group]; ok {
		return w
	}
	return 100
}
