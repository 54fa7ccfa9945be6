package stats

import "strings"

// Core stat names. Every Block carries all of them from construction.
const (
	Morale               = "Morale"
	ResourceAvailability = "ResourceAvailability"
	PoliticalStability   = "PoliticalStability"
	EnvironmentalHealth  = "EnvironmentalHealth"
	EconomicProsperity   = "EconomicProsperity"
	PopulationDensity    = "PopulationDensity"
	Radicalization       = "Radicalization"
	HealthRisk           = "HealthRisk"
	CrimeRate            = "CrimeRate"
	TechnologicalLevel   = "TechnologicalLevel"
	CulturalDevelopment  = "CulturalDevelopment"
	InfluenceSpread      = "InfluenceSpread"
	MedicalResources     = "MedicalResources"
	Education            = "Education"
	Infrastructure       = "Infrastructure"
	Tourism              = "Tourism"
)

const (
	MinValue = 0.0
	MaxValue = 100.0

	// ChangeThreshold is the smallest delta that fires a change notification.
	ChangeThreshold = 0.01
)

type coreStat struct {
	name     string
	fallback float64
}

var coreStats = []coreStat{
	{Morale, 50},
	{ResourceAvailability, 50},
	{PoliticalStability, 50},
	{EnvironmentalHealth, 50},
	{EconomicProsperity, 50},
	{PopulationDensity, 50},
	{Radicalization, 0},
	{HealthRisk, 0},
	{CrimeRate, 10},
	{TechnologicalLevel, 50},
	{CulturalDevelopment, 50},
	{InfluenceSpread, 0},
	{MedicalResources, 50},
	{Education, 50},
	{Infrastructure, 50},
	{Tourism, 0},
}

var coreIndex = func() map[string]int {
	index := make(map[string]int, len(coreStats))
	for i, stat := range coreStats {
		index[strings.ToLower(stat.name)] = i
	}
	return index
}()

// CoreNames returns the canonical core stat names in declaration order.
func CoreNames() []string {
	names := make([]string, len(coreStats))
	for i, stat := range coreStats {
		names[i] = stat.name
	}
	return names
}

// CanonicalName maps a case-insensitive core stat name to its canonical
// spelling. The second result is false for non-core names.
func CanonicalName(name string) (string, bool) {
	i, ok := coreIndex[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return coreStats[i].name, true
}

// IsCore reports whether name is a predeclared core stat.
func IsCore(name string) bool {
	_, ok := CanonicalName(name)
	return ok
}

// Default returns the construction value of a core stat, or 0 for anything else.
func Default(name string) float64 {
	i, ok := coreIndex[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0
	}
	return coreStats[i].fallback
}
