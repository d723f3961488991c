package gateway

import (
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Command is a parsed chat line: a resolved command name and its raw
// arguments.
type Command struct {
	Name string
	Args []string
}

// commands the parser resolves against. Order matters only for the
// help listing.
var commandNames = []string{
	"build", "build_common", "add_seed", "add_seed_common",
	"donate_seeds", "borrow_seeds",
	"lay_egg", "brood", "brood_random", "pray", "bless_egg",
	"sing", "sing_repeat", "entrust", "graduate_bird",
	"forage", "cancel_forage",
	"plant_new", "plant_compost",
	"manifest_bird", "manifest_plant",
	"study", "answer", "swoop", "current_human",
	"explore", "memoir", "nests", "showcase_nest",
	"rename_nest", "feature_bird", "decorator",
	"weather", "remaining", "help",
}

// Parse resolves one chat line into a command. Misspelled command
// names within a small edit distance still match, so "borod @x" works.
func Parse(line string) (*Command, bool) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return nil, false
	}
	name := resolveName(strings.ToLower(fields[0]))
	if name == "" {
		return nil, false
	}
	return &Command{Name: name, Args: fields[1:]}, true
}

func resolveName(token string) string {
	best := ""
	bestDist := 1 << 30
	for _, cand := range commandNames {
		dist := levenshtein.ComputeDistance(token, cand)
		if dist > distanceLimit(len(cand)) {
			continue
		}
		if dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	return best
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// amount parses an optional trailing count argument, defaulting to 1.
func amount(args []string) (int, []string) {
	if len(args) == 0 {
		return 1, args
	}
	last := args[len(args)-1]
	if n, err := strconv.Atoi(last); err == nil {
		return n, args[:len(args)-1]
	}
	return 1, args
}

// mention strips chat-platform decoration from a player reference.
func mention(s string) string {
	s = strings.TrimPrefix(s, "@")
	s = strings.TrimPrefix(s, "<@")
	s = strings.TrimSuffix(s, ">")
	return s
}
