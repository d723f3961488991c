package catalog

import (
	"regexp"
	"strconv"
)

// EffectKind tags a parsed effect template.
type EffectKind int

const (
	// EffectNone marks an empty or unrecognized effect string. Inert.
	EffectNone EffectKind = iota
	// EffectFirstOfDayResource: "Your first <tag> action of the day
	// gives +N <resource>".
	EffectFirstOfDayResource
	// EffectSongBonus: "All your songs give +N bonus actions to the
	// target".
	EffectSongBonus
	// EffectFirstMoreEffective: "All your first <tag> actions are +N%
	// more effective".
	EffectFirstMoreEffective
	// EffectLessBrood: "+P% chance of your eggs needing one less brood".
	EffectLessBrood
	// EffectExtraBird: "+P% chance of your eggs hatching an extra bird".
	EffectExtraBird
	// EffectSingInspiration: "has a X% chance to give you +1
	// inspiration" on the first sing of the day.
	EffectSingInspiration
)

// Effect is the parsed form of a catalog effect string. The engine only
// ever consults this, never the prose.
type Effect struct {
	Kind     EffectKind
	Tag      string  // action tag, for first-of-day templates
	Resource string  // twigs, seeds, inspiration, bonus actions
	Amount   int     // flat amount, for +N templates
	Percent  float64 // percentage, for chance/effectiveness templates
}

var (
	reFirstOfDay  = regexp.MustCompile(`^Your first (\w+) action of the day gives \+(\d+) ([\w ]+)$`)
	reSongBonus   = regexp.MustCompile(`^All your songs give \+(\d+) bonus actions to the target$`)
	reFirstBetter = regexp.MustCompile(`^All your first (\w+) actions are \+(\d+)% more effective$`)
	reLessBrood   = regexp.MustCompile(`^\+(\d+)% chance of your eggs needing one less brood$`)
	reExtraBird   = regexp.MustCompile(`^\+(\d+)% chance of your eggs hatching an extra bird$`)
	reSingInspo   = regexp.MustCompile(`^has a (\d+)% chance to give you \+1 inspiration$`)
)

// ParseEffect matches an effect string against the closed template
// grammar. Strings that match no template parse as EffectNone so new
// catalog prose degrades to inert rather than failing the load.
func ParseEffect(text string) Effect {
	if text == "" {
		return Effect{}
	}
	if m := reFirstOfDay.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[2])
		return Effect{Kind: EffectFirstOfDayResource, Tag: m[1], Amount: n, Resource: m[3]}
	}
	if m := reSongBonus.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Effect{Kind: EffectSongBonus, Amount: n}
	}
	if m := reFirstBetter.FindStringSubmatch(text); m != nil {
		p, _ := strconv.Atoi(m[2])
		return Effect{Kind: EffectFirstMoreEffective, Tag: m[1], Percent: float64(p)}
	}
	if m := reLessBrood.FindStringSubmatch(text); m != nil {
		p, _ := strconv.Atoi(m[1])
		return Effect{Kind: EffectLessBrood, Percent: float64(p)}
	}
	if m := reExtraBird.FindStringSubmatch(text); m != nil {
		p, _ := strconv.Atoi(m[1])
		return Effect{Kind: EffectExtraBird, Percent: float64(p)}
	}
	if m := reSingInspo.FindStringSubmatch(text); m != nil {
		p, _ := strconv.Atoi(m[1])
		return Effect{Kind: EffectSingInspiration, Percent: float64(p)}
	}
	return Effect{}
}
