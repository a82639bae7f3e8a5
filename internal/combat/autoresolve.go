package combat

import (
	"fmt"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
)

// AutoResolveResult is the instant estimate of a battle fought off the grid
type AutoResolveResult struct {
	PlayerWins bool                     `json:"player_wins"`
	Rounds     int                      `json:"rounds"`
	Experience int                      `json:"experience"`
	Survivors  []entities.StackSnapshot `json:"survivors"`
}

// AutoResolve simulates a battle without positioning: each round every
// living stack strikes one opposing stack with the standard melee formula,
// player side first. Target choice comes from the roller, so a seeded roller
// gives a reproducible estimate. Minimum damage per hit guarantees
// termination.
func AutoResolve(player, enemy []entities.StackSpec, roller dice.Roller) (*AutoResolveResult, error) {
	if roller == nil {
		return nil, errors.InvalidArgument("roller is required")
	}

	playerStacks := specsToStacks(entities.SidePlayer, player)
	enemyStacks := specsToStacks(entities.SideEnemy, enemy)
	initialEnemy := 0
	for _, s := range enemyStacks {
		initialEnemy += s.Count
	}

	rounds := 0
	for len(living(playerStacks)) > 0 && len(living(enemyStacks)) > 0 {
		rounds++
		if err := autoRound(roller, playerStacks, enemyStacks); err != nil {
			return nil, err
		}
		if err := autoRound(roller, enemyStacks, playerStacks); err != nil {
			return nil, err
		}
	}

	remaining := 0
	survivors := make([]entities.StackSnapshot, 0, len(playerStacks)+len(enemyStacks))
	for _, s := range append(living(playerStacks), living(enemyStacks)...) {
		survivors = append(survivors, s.Snapshot())
		if s.Side == entities.SideEnemy {
			remaining += s.Count
		}
	}

	return &AutoResolveResult{
		PlayerWins: len(living(playerStacks)) > 0,
		Rounds:     rounds,
		Experience: (initialEnemy - remaining) * 10,
		Survivors:  survivors,
	}, nil
}

func specsToStacks(side entities.Side, specs []entities.StackSpec) []*entities.Stack {
	stacks := make([]*entities.Stack, 0, len(specs))
	for i, spec := range specs {
		stacks = append(stacks, entities.NewStack(autoID(side, i), side, spec))
	}
	return stacks
}

func autoID(side entities.Side, i int) string {
	return fmt.Sprintf("auto_%s_%d", side, i+1)
}

func living(stacks []*entities.Stack) []*entities.Stack {
	out := make([]*entities.Stack, 0, len(stacks))
	for _, s := range stacks {
		if s.Alive() {
			out = append(out, s)
		}
	}
	return out
}

// autoRound has every living attacker strike one living defender
func autoRound(roller dice.Roller, attackers, defenders []*entities.Stack) error {
	for _, attacker := range attackers {
		if !attacker.Alive() {
			continue
		}
		targets := living(defenders)
		if len(targets) == 0 {
			return nil
		}
		pick, err := roller.Roll(len(targets))
		if err != nil {
			return errors.Wrap(err, "failed to pick a target")
		}
		target := targets[pick-1]

		base, err := rollBaseDamage(roller, attacker)
		if err != nil {
			return err
		}
		dmg := base * attacker.Count
		luck, err := rollLuck(roller, attacker.Stats.Luck)
		if err != nil {
			return err
		}
		if luck != 1.0 {
			dmg = roundScale(dmg, luck)
		}
		target.TakeDamage(entities.ApplyDefence(dmg, target, entities.AttackMelee))
	}
	return nil
}
