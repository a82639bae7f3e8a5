package combat

import (
	"math"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/rules"
)

// handleMove walks or flies the actor along the cheapest path to the
// destination. Moving never ends the turn; the actor can still attack or
// cast afterwards.
func (e *Encounter) handleMove(actor *entities.Stack, dest entities.Position) error {
	if actor.MovementLeft <= 0 {
		return errors.FailedPreconditionf("stack %s has no movement left", actor.ID)
	}
	if !e.grid.InBounds(dest) {
		return errors.InvalidArgumentf("destination (%d,%d) is off the board", dest.X, dest.Y)
	}
	path := e.grid.ShortestPath(actor, dest, actor.MovementLeft, e.isFlying(actor))
	if path == nil {
		return errors.InvalidArgumentf("destination (%d,%d) is not reachable", dest.X, dest.Y)
	}

	if err := e.grid.Move(actor, dest); err != nil {
		return err
	}
	cost := len(path)
	actor.MovementLeft -= cost
	actor.MovedThisTurn += cost
	e.emit(LogEvent{
		Kind:     EventMoved,
		ActorID:  actor.ID,
		Value:    cost,
		Position: &dest,
	})
	return nil
}

// handleAttack strikes a target in range, triggering charge bonuses,
// knockback, and the defender's retaliation. Ends the turn.
func (e *Encounter) handleAttack(actor *entities.Stack, targetID string) error {
	target := e.findStack(targetID)
	if target == nil {
		return errors.NotFoundf("stack %s not found", targetID)
	}
	if !target.Alive() {
		return errors.FailedPreconditionf("stack %s is already destroyed", targetID)
	}
	if target.Side == actor.Side {
		return errors.InvalidArgumentf("stack %s cannot attack its own side", actor.ID)
	}
	if !InAttackRange(actor, target) {
		return errors.InvalidArgumentf("stack %s is out of range of %s", targetID, actor.ID)
	}

	dist := actor.Position.ManhattanTo(target.Position)
	kind := attackKind(actor, dist)
	covered := kind == entities.AttackRanged && e.grid.CoverBetween(actor.Position, target.Position)

	dmg, err := e.rollAttackDamage(actor, kind, dist, covered)
	if err != nil {
		return err
	}

	charged := kind == entities.AttackMelee && e.chargeTriggered(actor)
	var chargeDesc rules.Descriptor
	if charged {
		chargeDesc, _ = e.rules.Lookup(rules.AbilityCharge)
		dmg = roundScale(dmg, 1+chargeDesc.DamageBonus)
	}

	final := entities.ApplyDefence(dmg, target, kind)
	e.applyDamage(EventAttacked, actor.ID, target, final)

	if charged && target.Alive() && chargeDesc.Knockback > 0 {
		e.knockBack(actor, target, chargeDesc.Knockback)
	}

	// Melee strikes provoke a counter from a surviving defender
	if kind == entities.AttackMelee && target.Alive() && target.RetaliationsLeft > 0 {
		retDmg, retErr := e.rollAttackDamage(target, entities.AttackMelee, dist, false)
		if retErr != nil {
			return retErr
		}
		target.RetaliationsLeft--
		e.applyDamage(EventRetaliated, target.ID, actor, entities.ApplyDefence(retDmg, actor, entities.AttackMelee))
	}

	e.checkTermination()
	e.finishAction(actor)
	return nil
}

// attackKind infers how a strike lands. Shooters fight at any distance but
// always use their ranged profile; everyone else fights in melee at
// distance 1.
func attackKind(attacker *entities.Stack, dist int) entities.AttackType {
	if dist > 1 || attacker.Stats.AttackRange > 1 {
		return entities.AttackRanged
	}
	return entities.AttackMelee
}

// chargeTriggered reports whether the actor built up enough momentum this
// turn for its charge bonus
func (e *Encounter) chargeTriggered(actor *entities.Stack) bool {
	if !actor.HasAbility(rules.AbilityCharge) {
		return false
	}
	d, ok := e.rules.Lookup(rules.AbilityCharge)
	return ok && actor.MovedThisTurn >= d.MinMove
}

// rollAttackDamage computes pre-defence damage for one strike: a uniform
// roll in [AttackMin, AttackMax] plus the hero's attack bonus, multiplied by
// stack size, then the luck multiplier and the ranged penalties (point-blank
// shot, obstacle cover).
func (e *Encounter) rollAttackDamage(attacker *entities.Stack, kind entities.AttackType, dist int, covered bool) (int, error) {
	base, err := rollBaseDamage(e.roller, attacker)
	if err != nil {
		return 0, err
	}
	dmg := base * attacker.Count

	luck, err := rollLuck(e.roller, attacker.Stats.Luck)
	if err != nil {
		return 0, err
	}
	if luck != 1.0 {
		dmg = roundScale(dmg, luck)
	}

	if kind == entities.AttackRanged {
		minRange := attacker.Stats.MinRange
		if minRange < 2 {
			minRange = 2
		}
		if dist < minRange {
			dmg = roundScale(dmg, 0.75)
		}
		if covered {
			dmg = roundScale(dmg, 0.5)
		}
	}
	return dmg, nil
}

func rollBaseDamage(roller dice.Roller, attacker *entities.Stack) (int, error) {
	span := attacker.Stats.AttackMax - attacker.Stats.AttackMin + 1
	if span < 1 {
		span = 1
	}
	r, err := roller.Roll(span)
	if err != nil {
		return 0, errors.Wrap(err, "failed to roll damage")
	}
	return attacker.Stats.AttackMin + r - 1 + attacker.AttackBonus, nil
}

// rollLuck returns the damage multiplier from a luck proc: 1.5 on a lucky
// strike, 0.5 on an unlucky one, probability |luck|/24 with luck clamped to
// ±2. Zero luck never rolls.
func rollLuck(roller dice.Roller, luck int) (float64, error) {
	if luck == 0 {
		return 1.0, nil
	}
	threshold := abs(luck)
	if threshold > 2 {
		threshold = 2
	}
	r, err := roller.Roll(24)
	if err != nil {
		return 0, errors.Wrap(err, "failed to roll luck")
	}
	if r > threshold {
		return 1.0, nil
	}
	if luck > 0 {
		return 1.5, nil
	}
	return 0.5, nil
}

func roundScale(value int, factor float64) int {
	return int(math.Round(float64(value) * factor))
}

// knockBack pushes the target one step further from the attacker per point,
// stopping at the board edge, obstacles, or another stack.
func (e *Encounter) knockBack(attacker, target *entities.Stack, tiles int) {
	dx := sign(target.Position.X - attacker.Position.X)
	dy := sign(target.Position.Y - attacker.Position.Y)
	for i := 0; i < tiles; i++ {
		next := entities.Position{X: target.Position.X + dx, Y: target.Position.Y + dy}
		if !e.grid.Free(next) {
			return
		}
		if err := e.grid.Move(target, next); err != nil {
			return
		}
		e.emit(LogEvent{
			Kind:     EventKnockedBack,
			ActorID:  attacker.ID,
			TargetID: target.ID,
			Position: &next,
		})
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// handleCast resolves an active ability at a target tile. Fireball damages
// every enemy stack in the blast box; the caster's own side is spared.
// Ends the turn.
func (e *Encounter) handleCast(actor *entities.Stack, abilityID string, target entities.Position) error {
	if abilityID == "" {
		return errors.InvalidArgument("ability id is required")
	}
	desc, ok := e.rules.Lookup(abilityID)
	if !ok {
		return errors.InvalidArgumentf("unknown ability %q", abilityID)
	}
	if desc.Trigger != rules.TriggerActive {
		return errors.InvalidArgumentf("ability %q cannot be cast", abilityID)
	}
	if !actor.HasAbility(abilityID) {
		return errors.FailedPreconditionf("stack %s does not know %s", actor.ID, abilityID)
	}
	if actor.Mana < desc.ManaCost {
		return errors.FailedPreconditionf("stack %s needs %d mana for %s, has %d",
			actor.ID, desc.ManaCost, abilityID, actor.Mana)
	}
	if !e.grid.InBounds(target) {
		return errors.InvalidArgumentf("target (%d,%d) is off the board", target.X, target.Y)
	}
	if actor.Position.ManhattanTo(target) > desc.Range {
		return errors.InvalidArgumentf("target (%d,%d) is beyond %s range %d",
			target.X, target.Y, abilityID, desc.Range)
	}

	actor.Mana -= desc.ManaCost
	e.emit(LogEvent{
		Kind:     EventSpellCast,
		ActorID:  actor.ID,
		Value:    desc.ManaCost,
		Position: &target,
	})

	for _, victim := range e.stacks {
		if !victim.Alive() || victim.Side == actor.Side {
			continue
		}
		if victim.Position.ChebyshevTo(target) > desc.Radius {
			continue
		}
		final := entities.ApplyDefence(desc.Damage, victim, entities.AttackMagic)
		e.applyDamage(EventSpellHit, actor.ID, victim, final)
	}

	e.checkTermination()
	e.finishAction(actor)
	return nil
}

// handleEndTurn forfeits remaining movement
func (e *Encounter) handleEndTurn(actor *entities.Stack) {
	actor.MovementLeft = 0
	e.emit(LogEvent{Kind: EventTurnEnded, ActorID: actor.ID})
	e.finishAction(actor)
}

// handleFlee concedes the battle. Only the player side can run; the enemy
// army fights to the end.
func (e *Encounter) handleFlee(actor *entities.Stack) error {
	if actor.Side != entities.SidePlayer {
		return errors.FailedPreconditionf("stack %s cannot flee, only the player side retreats", actor.ID)
	}
	e.emit(LogEvent{Kind: EventFled, ActorID: actor.ID})
	e.resolve(OutcomeFled)
	return nil
}
