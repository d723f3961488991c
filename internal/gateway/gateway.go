// Package gateway turns chat lines into engine calls and engine
// results into chat replies. It is the only layer that maps the
// engine's error classes to user-facing text.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/rookery/internal/game"
	"github.com/talgya/rookery/internal/weather"
)

// Gateway dispatches parsed commands against the engine.
type Gateway struct {
	engine   *game.Engine
	forecast *weather.Forecaster
	tokens   *tokenRegistry
	log      *slog.Logger
}

// New wires a gateway. forecast may be nil; the weather command then
// reports the service as away.
func New(engine *game.Engine, forecast *weather.Forecaster, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		engine:   engine,
		forecast: forecast,
		tokens:   newTokenRegistry(),
		log:      log,
	}
}

// DecoratorToken issues a web-decorator session token for the player.
func (g *Gateway) DecoratorToken(playerID string) (string, error) {
	return g.tokens.Issue(playerID)
}

// ResolveToken maps a decorator token back to its player, or "".
func (g *Gateway) ResolveToken(token string) string {
	return g.tokens.Resolve(token)
}

// Handle processes one chat line from a player and returns the reply.
// Unrecognized lines return ok=false so the chat front end can stay
// silent.
func (g *Gateway) Handle(ctx context.Context, playerID, line string) (string, bool) {
	cmd, ok := Parse(line)
	if !ok {
		return "", false
	}
	reply, err := g.dispatch(ctx, playerID, cmd)
	if err != nil {
		g.log.Info("command failed", "player", playerID, "command", cmd.Name, "error", err)
		return g.explain(err), true
	}
	return reply, true
}

func (g *Gateway) dispatch(ctx context.Context, playerID string, cmd *Command) (string, error) {
	switch cmd.Name {
	case "build", "build_common", "add_seed", "add_seed_common":
		return g.deposit(ctx, playerID, cmd)
	case "donate_seeds":
		n, _ := amount(cmd.Args)
		if err := g.engine.DonateSeeds(ctx, playerID, n); err != nil {
			return "", err
		}
		return fmt.Sprintf("You tip %s seeds into the common stores.", humanize.Comma(int64(n))), nil
	case "borrow_seeds":
		n, _ := amount(cmd.Args)
		if err := g.engine.BorrowSeeds(ctx, playerID, n); err != nil {
			return "", err
		}
		return fmt.Sprintf("You borrow %s seeds from the common stores.", humanize.Comma(int64(n))), nil
	case "lay_egg":
		res, err := g.engine.LayEgg(ctx, playerID)
		if err != nil {
			return "", err
		}
		if res.InitialProgress > 0 {
			return fmt.Sprintf("An egg appears in your nest, already %d broods along thanks to your garden.", res.InitialProgress), nil
		}
		return "An egg appears in your nest. It will need ten broods to hatch.", nil
	case "brood":
		if len(cmd.Args) < 1 {
			return "", fmt.Errorf("%w: whose egg?", game.ErrInvalidInput)
		}
		target := mention(cmd.Args[0])
		res, err := g.engine.Brood(ctx, playerID, target)
		if err != nil {
			return "", err
		}
		return renderBrood(target, res), nil
	case "brood_random":
		target, res, err := g.engine.BroodRandom(ctx, playerID)
		if err != nil {
			return "", err
		}
		return renderBrood(target, res), nil
	case "pray":
		n, rest := amount(cmd.Args)
		if len(rest) == 0 {
			return "", fmt.Errorf("%w: pray for which species?", game.ErrInvalidInput)
		}
		species := strings.Join(rest, " ")
		sci, err := g.engine.Pray(ctx, playerID, species, n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You pray %d times for %s (%s).", n, species, sci), nil
	case "bless_egg":
		if err := g.engine.BlessEgg(ctx, playerID); err != nil {
			return "", err
		}
		return "Your egg glows softly. Its prayers will survive a disappointing hatch.", nil
	case "sing":
		if len(cmd.Args) == 0 {
			return "", fmt.Errorf("%w: sing to whom?", game.ErrInvalidInput)
		}
		targets := make([]string, 0, len(cmd.Args))
		for _, a := range cmd.Args {
			targets = append(targets, mention(a))
		}
		res, err := g.engine.Sing(ctx, playerID, targets)
		if err != nil {
			return "", err
		}
		return renderSing(res), nil
	case "sing_repeat":
		res, err := g.engine.SingRepeat(ctx, playerID)
		if err != nil {
			return "", err
		}
		return renderSing(res), nil
	case "entrust":
		if len(cmd.Args) < 2 {
			return "", fmt.Errorf("%w: entrust which bird to whom?", game.ErrInvalidInput)
		}
		receiver := mention(cmd.Args[len(cmd.Args)-1])
		name := strings.Join(cmd.Args[:len(cmd.Args)-1], " ")
		bird, err := g.engine.Entrust(ctx, playerID, receiver, name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s flutters over to %s's nest.", bird.CommonName, receiver), nil
	case "graduate_bird":
		if len(cmd.Args) == 0 {
			return "", fmt.Errorf("%w: graduate which bird?", game.ErrInvalidInput)
		}
		name := strings.Join(cmd.Args, " ")
		bird, tally, err := g.engine.GraduateBird(ctx, playerID, name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s takes wing for the wild — the %s bird released from the realm.",
			bird.CommonName, humanize.Ordinal(tally)), nil
	case "forage":
		n, rest := amount(cmd.Args)
		if len(rest) == 0 {
			return "", fmt.Errorf("%w: forage where? (%s)", game.ErrInvalidInput,
				strings.Join(game.ExploreRegions, ", "))
		}
		d, err := g.engine.Forage(ctx, playerID, strings.ToLower(rest[0]), n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You set out foraging. Expected back %s.",
			humanize.Time(time.Now().Add(d))), nil
	case "cancel_forage":
		n, err := g.engine.CancelForage(ctx, playerID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Forage called off; %d actions returned as bonus actions.", n), nil
	case "plant_new":
		if len(cmd.Args) == 0 {
			return "", fmt.Errorf("%w: plant what?", game.ErrInvalidInput)
		}
		p, err := g.engine.PlantNew(ctx, playerID, strings.Join(cmd.Args, " "))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("A %s (%s) takes root in your garden.", p.CommonName, p.ScientificName), nil
	case "plant_compost":
		if len(cmd.Args) == 0 {
			return "", fmt.Errorf("%w: compost what?", game.ErrInvalidInput)
		}
		res, err := g.engine.Compost(ctx, playerID, strings.Join(cmd.Args, " "))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("The %s returns to the soil: +%d seeds, +%d inspiration.",
			res.Plant, res.SeedsRefunded, res.InspirationBack), nil
	case "manifest_bird", "manifest_plant":
		taxon := game.TaxonBird
		if cmd.Name == "manifest_plant" {
			taxon = game.TaxonPlant
		}
		n, rest := amount(cmd.Args)
		if len(rest) == 0 {
			return "", fmt.Errorf("%w: manifest which species?", game.ErrInvalidInput)
		}
		res, err := g.engine.Manifest(ctx, playerID, strings.Join(rest, " "), n, taxon)
		if err != nil {
			return "", err
		}
		if res.FullyManifested {
			return fmt.Sprintf("%s (%s) is fully manifested! A %s species joins the realm.",
				res.CommonName, res.ScientificName, res.Rarity), nil
		}
		return fmt.Sprintf("%s gains %d manifestation (%d/%d, %s).",
			res.CommonName, res.PointsAdded, res.Points, res.Threshold, res.Rarity), nil
	case "study":
		n, _ := amount(cmd.Args)
		quote, err := g.engine.StartStudy(ctx, playerID, n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%q\n\nWho said it? Reply with `answer <name>`. (%s)",
			quote.Text, strings.Join(quote.Options, ", ")), nil
	case "answer":
		if len(cmd.Args) == 0 {
			return "", fmt.Errorf("%w: answer with a researcher's name", game.ErrInvalidInput)
		}
		res, err := g.engine.AnswerStudy(ctx, playerID, strings.Join(cmd.Args, " "))
		if err != nil {
			return "", err
		}
		reply := fmt.Sprintf("It was %s.", res.Author)
		if res.Correct {
			reply = fmt.Sprintf("Correct, it was %s!", res.Author)
		}
		reply += fmt.Sprintf(" +%d research points (%d total).", res.PointsAwarded, res.TotalPoints)
		for _, m := range res.NewMilestones {
			reply += fmt.Sprintf(" Milestone unlocked: %s.", m)
		}
		return reply, nil
	case "swoop":
		n, _ := amount(cmd.Args)
		res, err := g.engine.Swoop(ctx, playerID, n)
		if err != nil {
			return "", err
		}
		if res.Defeated {
			return fmt.Sprintf("%s is defeated! The realm receives %s (%d).",
				res.Adversary, res.Blessing, res.Amount), nil
		}
		return fmt.Sprintf("You swoop %s for %d. Resilience %d remains.",
			res.Adversary, res.Damage, res.Resilience), nil
	case "current_human":
		adv, err := g.engine.CurrentAdversary(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (tier %d) looms over the realm: %d/%d resilience.",
			adv.Name, adv.Tier, adv.Resilience, adv.MaxResilience), nil
	case "explore":
		n, rest := amount(cmd.Args)
		if len(rest) == 0 {
			return "", fmt.Errorf("%w: explore where? (%s)", game.ErrInvalidInput,
				strings.Join(game.ExploreRegions, ", "))
		}
		res, err := g.engine.Explore(ctx, playerID, rest[0], n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("The realm's knowledge of the %s grows to %s.",
			res.Region, humanize.Comma(int64(res.Total))), nil
	case "memoir":
		if len(cmd.Args) == 0 {
			return "", fmt.Errorf("%w: a memoir needs words", game.ErrInvalidInput)
		}
		if err := g.engine.WriteMemoir(ctx, playerID, strings.Join(cmd.Args, " ")); err != nil {
			return "", err
		}
		return "Today's memoir is pressed into the nest's pages.", nil
	case "nests", "showcase_nest":
		return g.renderNest(ctx, playerID, cmd)
	case "rename_nest":
		if len(cmd.Args) == 0 {
			return "", fmt.Errorf("%w: rename it to what?", game.ErrInvalidInput)
		}
		name := strings.Join(cmd.Args, " ")
		if err := g.engine.RenameNest(ctx, playerID, name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Your nest is now known as %q.", name), nil
	case "feature_bird":
		if len(cmd.Args) == 0 {
			return "", fmt.Errorf("%w: feature which bird?", game.ErrInvalidInput)
		}
		bird, err := g.engine.FeatureBird(ctx, playerID, strings.Join(cmd.Args, " "))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%s) now greets visitors to your nest.",
			bird.CommonName, bird.ScientificName), nil
	case "decorator":
		token, err := g.tokens.Issue(playerID)
		if err != nil {
			return "", fmt.Errorf("%w: could not mint a decorator token", game.ErrInternal)
		}
		return fmt.Sprintf("Your decorator session is open for an hour: token %s", token), nil
	case "weather":
		if g.forecast == nil {
			return "The weather watchers are away today.", nil
		}
		return g.forecast.Forecast(g.engine.Clock().Today()), nil
	case "remaining":
		n, err := g.engine.Remaining(ctx, playerID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You have %d actions left. Reset %s.",
			n, humanize.Time(time.Now().Add(g.engine.Clock().UntilReset()))), nil
	case "help":
		return "Commands: " + strings.Join(commandNames, ", "), nil
	}
	return "", fmt.Errorf("%w: unknown command %q", game.ErrInvalidInput, cmd.Name)
}

func (g *Gateway) deposit(ctx context.Context, playerID string, cmd *Command) (string, error) {
	n, _ := amount(cmd.Args)
	var (
		res *game.DepositResult
		err error
	)
	noun, place := "twigs", "your nest"
	switch cmd.Name {
	case "build":
		res, err = g.engine.Build(ctx, playerID, n)
	case "build_common":
		place = "the common nest"
		res, err = g.engine.BuildCommon(ctx, playerID, n)
	case "add_seed":
		noun = "seeds"
		res, err = g.engine.AddSeed(ctx, playerID, n)
	case "add_seed_common":
		noun, place = "seeds", "the common stores"
		res, err = g.engine.AddSeedCommon(ctx, playerID, n)
	}
	if err != nil {
		return "", err
	}
	reply := fmt.Sprintf("You add %s %s to %s.", humanize.Comma(int64(res.Deposited)), noun, place)
	if res.Deposited < res.Requested {
		reply += fmt.Sprintf(" (%d requested)", res.Requested)
	}
	for _, note := range res.Notes {
		reply += " " + note + "."
	}
	reply += fmt.Sprintf(" %d actions left.", res.Remaining)
	return reply, nil
}

func (g *Gateway) renderNest(ctx context.Context, playerID string, cmd *Command) (string, error) {
	target := playerID
	if len(cmd.Args) > 0 {
		target = mention(cmd.Args[0])
	}
	s, err := g.engine.Nest(ctx, target)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	name := s.Player.NestName
	if name == "" {
		name = target + "'s nest"
	}
	fmt.Fprintf(&b, "%s — %d twigs, %d seeds, %d inspiration.\n",
		name, s.Player.Twigs, s.Player.Seeds, s.Player.Inspiration)
	fmt.Fprintf(&b, "Birds %d/%d, garden %d/%d plants.",
		len(s.Birds), s.MaxBirds, len(s.Plants), s.Player.GardenSize)
	if s.Player.FeaturedCommon != "" {
		fmt.Fprintf(&b, " Featured: %s.", s.Player.FeaturedCommon)
	}
	if s.Egg != nil {
		fmt.Fprintf(&b, "\nAn egg sits at %d/%d broods.", s.Egg.Progress, game.BroodTarget)
	}
	fmt.Fprintf(&b, "\nShared stores: %d twigs, %d seeds.", s.Shared.Twigs, s.Shared.Seeds)
	return b.String(), nil
}

func renderBrood(target string, res *game.BroodResult) string {
	if res.Hatched != nil {
		names := make([]string, 0, len(res.Hatched.Birds))
		for _, b := range res.Hatched.Birds {
			names = append(names, b.CommonName)
		}
		reply := fmt.Sprintf("The egg hatches! Welcome %s to %s's nest.",
			strings.Join(names, " and "), target)
		if res.Hatched.PrayersPreserved {
			reply += " The blessing holds: a new egg carries the same prayers."
		}
		return reply
	}
	if res.HatchBlocked != "" {
		return fmt.Sprintf("The egg is ready but cannot hatch: %s. It stays warm until then.", res.HatchBlocked)
	}
	return fmt.Sprintf("You warm %s's egg: %d/%d broods.", target, res.Progress, game.BroodTarget)
}

func renderSing(res *game.SingResult) string {
	var parts []string
	inspiration := 0
	for _, t := range res.Targets {
		if t.Sung {
			parts = append(parts, fmt.Sprintf("%s +%d bonus actions", t.Target, t.BonusGiven))
			inspiration += t.Inspiration
		} else {
			parts = append(parts, fmt.Sprintf("%s skipped (%s)", t.Target, t.Skipped))
		}
	}
	reply := "Your song carries: " + strings.Join(parts, "; ") + "."
	if inspiration > 0 {
		reply += fmt.Sprintf(" The melody earns you +%d inspiration.", inspiration)
	}
	return reply
}

// explain maps an engine error to the line shown in chat.
func (g *Gateway) explain(err error) string {
	switch {
	case errors.Is(err, game.ErrOutOfActions):
		return "You are out of actions for today. " + trailing(err)
	case errors.Is(err, game.ErrNotEnoughResources):
		return "You cannot afford that. " + trailing(err)
	case errors.Is(err, game.ErrCapacityExceeded):
		return "There is no room for that. " + trailing(err)
	case errors.Is(err, game.ErrStateViolation):
		return "That does not work right now. " + trailing(err)
	case errors.Is(err, game.ErrStickerMismatch):
		return "Your decorations do not match the inventory; nothing was saved."
	case errors.Is(err, game.ErrExternalUnavailable):
		return "The field guides are unreachable at the moment. Try again soon."
	case errors.Is(err, game.ErrInvalidInput):
		return "I did not understand that. " + trailing(err)
	default:
		return "Something went wrong in the rookery. The keepers have been notified."
	}
}

// trailing extracts the human detail after the sentinel prefix.
func trailing(err error) string {
	msg := err.Error()
	i := strings.Index(msg, ": ")
	if i < 0 || i+3 > len(msg) {
		return ""
	}
	return strings.ToUpper(msg[i+2:i+3]) + msg[i+3:] + "."
}
