package world

const (
	Morning   = "Morning"
	Afternoon = "Afternoon"
	Evening   = "Evening"
	Night     = "Night"
)

const (
	Clear    = "Clear"
	Rain     = "Rain"
	Storm    = "Storm"
	Snow     = "Snow"
	Fog      = "Fog"
	Heatwave = "Heatwave"
)

var (
	Phases      = []string{Morning, Afternoon, Evening, Night}
	WeatherKind = []string{Clear, Rain, Storm, Snow, Fog, Heatwave}
)

// Clock is the ambient time state consulted by event conditions.
type Clock struct {
	Tick    int64
	Elapsed float64
	Phase   string
	Weather string

	phaseElapsed   float64
	weatherElapsed float64
}

func (w *World) Clock() Clock {
	return w.clock
}

// SetClock replaces tick, elapsed time, phase and weather. Phase and weather
// timers restart.
func (w *World) SetClock(c Clock) {
	c.phaseElapsed = 0
	c.weatherElapsed = 0
	if c.Phase == "" {
		c.Phase = Morning
	}
	if c.Weather == "" {
		c.Weather = Clear
	}
	w.clock = c
}

func (w *World) CurrentTick() int64 {
	return w.clock.Tick
}

func (w *World) Phase() string {
	return w.clock.Phase
}

func (w *World) Weather() string {
	return w.clock.Weather
}

func (w *World) SetPhase(phase string) {
	w.clock.Phase = phase
	w.clock.phaseElapsed = 0
}

func (w *World) SetWeather(weather string) {
	w.clock.Weather = weather
	w.clock.weatherElapsed = 0
}

// advanceClock moves time forward by dt seconds, cycling the day phase every
// phaseSeconds and re-rolling the weather every weatherSeconds.
func (w *World) advanceClock(dt, phaseSeconds, weatherSeconds float64) {
	c := &w.clock
	c.Tick++
	c.Elapsed += dt

	if phaseSeconds > 0 {
		c.phaseElapsed += dt
		for c.phaseElapsed >= phaseSeconds {
			c.phaseElapsed -= phaseSeconds
			c.Phase = nextPhase(c.Phase)
		}
	}

	if weatherSeconds > 0 {
		c.weatherElapsed += dt
		for c.weatherElapsed >= weatherSeconds {
			c.weatherElapsed -= weatherSeconds
			c.Weather = WeatherKind[w.rng.IntN(len(WeatherKind))]
		}
	}
}

func nextPhase(phase string) string {
	for i, p := range Phases {
		if p == phase {
			return Phases[(i+1)%len(Phases)]
		}
	}
	return Morning
}
