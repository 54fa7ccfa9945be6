package stats

import (
	"math"
	"sort"
	"strings"
)

// ChangeFunc receives stat changes larger than ChangeThreshold.
type ChangeFunc func(name string, oldValue, newValue float64)

// Block is the per-entity attribute store. Core stats live in a fixed
// array and are clamped to [MinValue, MaxValue]; custom stats are declared at
// runtime and stored unclamped. A Block is not safe for concurrent use.
type Block struct {
	core     []float64
	custom   map[string]float64
	onChange []ChangeFunc
}

func NewBlock() *Block {
	b := &Block{}
	b.Reset()
	return b
}

// Reset restores every core stat to its default and drops custom stats.
// Listeners are kept and are not notified.
func (b *Block) Reset() {
	b.core = make([]float64, len(coreStats))
	for i, stat := range coreStats {
		b.core[i] = stat.fallback
	}
	b.custom = make(map[string]float64)
}

// OnChange registers fn to be called after every notable change.
func (b *Block) OnChange(fn ChangeFunc) {
	if fn == nil {
		return
	}
	b.onChange = append(b.onChange, fn)
}

// Get returns the value of name. Names that are neither core stats nor
// previously added custom stats read as 0 rather than failing.
func (b *Block) Get(name string) float64 {
	if i, ok := coreIndex[strings.ToLower(strings.TrimSpace(name))]; ok {
		return b.core[i]
	}
	return b.custom[name]
}

// Has reports whether name is a core stat or a declared custom stat.
func (b *Block) Has(name string) bool {
	if IsCore(name) {
		return true
	}
	_, ok := b.custom[name]
	return ok
}

// Lookup returns the stored spelling of name. Core stats resolve to their
// canonical name; custom stats match exactly first, then ignoring case.
func (b *Block) Lookup(name string) (string, bool) {
	if canonical, ok := CanonicalName(name); ok {
		return canonical, true
	}
	if _, ok := b.custom[name]; ok {
		return name, true
	}
	for _, custom := range b.CustomNames() {
		if strings.EqualFold(custom, strings.TrimSpace(name)) {
			return custom, true
		}
	}
	return "", false
}

// Set stores value under name. Core stats are clamped; an unknown name
// becomes a custom stat.
func (b *Block) Set(name string, value float64) {
	if i, ok := coreIndex[strings.ToLower(strings.TrimSpace(name))]; ok {
		old := b.core[i]
		b.core[i] = clamp(value)
		b.notify(coreStats[i].name, old, b.core[i])
		return
	}
	old := b.custom[name]
	b.custom[name] = value
	b.notify(name, old, value)
}

// Add shifts name by delta through Set.
func (b *Block) Add(name string, delta float64) {
	b.Set(name, b.Get(name)+delta)
}

// AddCustomStat declares a custom stat. It does nothing when name is already
// a core stat or a custom stat.
func (b *Block) AddCustomStat(name string, initial float64) {
	if b.Has(name) {
		return
	}
	b.custom[name] = initial
}

// RemoveCustomStat drops a custom stat and reports whether it existed.
func (b *Block) RemoveCustomStat(name string) bool {
	if _, ok := b.custom[name]; !ok {
		return false
	}
	delete(b.custom, name)
	return true
}

// CustomNames returns the declared custom stats, sorted.
func (b *Block) CustomNames() []string {
	names := make([]string, 0, len(b.custom))
	for name := range b.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Names returns the core stats in declaration order followed by the sorted
// custom stats.
func (b *Block) Names() []string {
	return append(CoreNames(), b.CustomNames()...)
}

// Serialize snapshots every core and custom stat by name.
func (b *Block) Serialize() map[string]float64 {
	out := make(map[string]float64, len(b.core)+len(b.custom))
	for i, stat := range coreStats {
		out[stat.name] = b.core[i]
	}
	for name, value := range b.custom {
		out[name] = value
	}
	return out
}

// Deserialize applies Set for every entry. Names that are not core stats
// become custom stats.
func (b *Block) Deserialize(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.Set(name, values[name])
	}
}

// Clone copies the stat values. Listeners are not copied.
func (b *Block) Clone() *Block {
	out := &Block{
		core:   append([]float64(nil), b.core...),
		custom: make(map[string]float64, len(b.custom)),
	}
	for name, value := range b.custom {
		out.custom[name] = value
	}
	return out
}

func (b *Block) notify(name string, oldValue, newValue float64) {
	if math.Abs(newValue-oldValue) <= ChangeThreshold {
		return
	}
	for _, fn := range b.onChange {
		fn(name, oldValue, newValue)
	}
}

func clamp(value float64) float64 {
	if math.IsNaN(value) {
		return MinValue
	}
	return math.Max(MinValue, math.Min(MaxValue, value))
}
