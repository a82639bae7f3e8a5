// Package ai selects actions for computer-controlled stacks. The policy is
// greedy: cast an area spell when it pays off, strike the most valuable
// target in range, otherwise close the distance to the chosen mark.
package ai

import (
	"github.com/KirkDiggler/tactics-api/internal/combat"
	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/rules"
)

// Greedy picks one action at a time for the acting stack. It is stateless;
// the same instance can drive both sides of a battle.
type Greedy struct {
	rules *rules.Table
}

// NewGreedy creates a policy over an ability table. A nil table means
// rules.Default().
func NewGreedy(table *rules.Table) *Greedy {
	if table == nil {
		table = rules.Default()
	}
	return &Greedy{rules: table}
}

// ChooseAction returns the next action for the actor. It never returns an
// action the encounter would reject: when nothing useful remains it ends the
// turn. Callers loop ChooseAction/SubmitAction until the turn passes, since
// moving leaves the turn open.
func (g *Greedy) ChooseAction(enc *combat.Encounter, actorID string) (*combat.Action, error) {
	var actor *entities.Stack
	for _, stack := range enc.Combatants() {
		if stack.ID == actorID {
			actor = stack
			break
		}
	}
	if actor == nil {
		return nil, errors.NotFoundf("stack %s not found", actorID)
	}
	enemies := make([]*entities.Stack, 0, 4)
	for _, stack := range enc.Combatants() {
		if stack.Side != actor.Side && stack.Alive() {
			enemies = append(enemies, stack)
		}
	}
	if len(enemies) == 0 {
		return &combat.Action{Kind: combat.ActionEndTurn, ActorID: actorID}, nil
	}

	if spell := g.chooseSpell(actor, enemies); spell != nil {
		return spell, nil
	}

	inRange := make([]*entities.Stack, 0, len(enemies))
	for _, enemy := range enemies {
		if combat.InAttackRange(actor, enemy) {
			inRange = append(inRange, enemy)
		}
	}
	if len(inRange) > 0 {
		return &combat.Action{
			Kind:     combat.ActionAttack,
			ActorID:  actorID,
			TargetID: chooseTarget(actor, inRange).ID,
		}, nil
	}

	mark := chooseTarget(actor, enemies)
	if dest, ok := g.stepToward(enc, actor, mark); ok {
		return &combat.Action{Kind: combat.ActionMove, ActorID: actorID, Target: dest}, nil
	}
	return &combat.Action{Kind: combat.ActionEndTurn, ActorID: actorID}, nil
}

// PlayTurn drives the actor until its turn ends. Moves leave the turn open,
// so the policy keeps choosing until it attacks, casts, or passes.
func (g *Greedy) PlayTurn(enc *combat.Encounter, actorID string) error {
	for {
		action, err := g.ChooseAction(enc, actorID)
		if err != nil {
			return err
		}
		if _, err := enc.SubmitAction(action); err != nil {
			return err
		}
		if action.Kind != combat.ActionMove || enc.State() == combat.StateResolved {
			return nil
		}
	}
}

// chooseSpell casts an active area spell when it would catch at least two
// enemy stacks
func (g *Greedy) chooseSpell(actor *entities.Stack, enemies []*entities.Stack) *combat.Action {
	for _, id := range actor.Stats.Abilities {
		desc, ok := g.rules.Lookup(id)
		if !ok || desc.Trigger != rules.TriggerActive {
			continue
		}
		if actor.Mana < desc.ManaCost {
			continue
		}

		var best entities.Position
		bestHits := 0
		for _, center := range enemies {
			if actor.Position.ManhattanTo(center.Position) > desc.Range {
				continue
			}
			hits := 0
			for _, enemy := range enemies {
				if enemy.Position.ChebyshevTo(center.Position) <= desc.Radius {
					hits++
				}
			}
			if hits > bestHits {
				bestHits = hits
				best = center.Position
			}
		}
		if bestHits >= 2 {
			return &combat.Action{
				Kind:      combat.ActionCast,
				ActorID:   actor.ID,
				AbilityID: id,
				Target:    best,
			}
		}
	}
	return nil
}

// chooseTarget picks the enemy worth attacking: closest first, then the
// biggest threat. Spawn order breaks remaining ties, keeping the policy
// deterministic.
func chooseTarget(actor *entities.Stack, enemies []*entities.Stack) *entities.Stack {
	best := enemies[0]
	bestDist := actor.Position.ManhattanTo(best.Position)
	bestThreat := threatScore(actor, best)
	for _, enemy := range enemies[1:] {
		dist := actor.Position.ManhattanTo(enemy.Position)
		threat := threatScore(actor, enemy)
		if dist < bestDist || (dist == bestDist && threat > bestThreat) {
			best, bestDist, bestThreat = enemy, dist, threat
		}
	}
	return best
}

// threatScore values offensive potential, fragility, and weakened stacks;
// melee attackers discount targets that can still retaliate
func threatScore(actor, enemy *entities.Stack) int {
	threat := enemy.Stats.AttackMax * enemy.Count
	if frail := 30 - enemy.Stats.MaxHP; frail > 0 {
		threat += frail
	}
	if enemy.TotalHP() < enemy.Stats.MaxHP*enemy.Count {
		threat += 10
	}
	if actor.Stats.AttackRange <= 1 && enemy.RetaliationsLeft > 0 {
		threat -= 5
	}
	return threat
}

// stepToward finds the reachable tile closest to the mark. Reports false
// when no tile improves on standing still.
func (g *Greedy) stepToward(enc *combat.Encounter, actor *entities.Stack, mark *entities.Stack) (entities.Position, bool) {
	tiles, err := enc.ReachableFor(actor.ID)
	if err != nil || len(tiles) == 0 {
		return entities.Position{}, false
	}
	best := actor.Position
	bestDist := actor.Position.ManhattanTo(mark.Position)
	for _, tile := range tiles {
		if d := tile.ManhattanTo(mark.Position); d < bestDist {
			best, bestDist = tile, d
		}
	}
	if best == actor.Position {
		return entities.Position{}, false
	}
	return best, true
}
