package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/tactics-api/internal/ai"
	"github.com/KirkDiggler/tactics-api/internal/combat"
	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/orchestrators/encounter"
	"github.com/KirkDiggler/tactics-api/internal/pkg/clock"
	"github.com/KirkDiggler/tactics-api/internal/pkg/idgen"
	"github.com/KirkDiggler/tactics-api/internal/pkg/roller"
	"github.com/KirkDiggler/tactics-api/internal/redis"
	"github.com/KirkDiggler/tactics-api/internal/repositories/encounters"
	"github.com/KirkDiggler/tactics-api/internal/rules"
)

var (
	seed      int64
	redisAddr string
	autoMode  bool
	maxRounds int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an AI-vs-AI battle and print the combat log",
	Long:  `Simulate deploys two demo armies, lets the greedy AI play both sides, and prints every combat-log event. The same seed always replays the same battle.`,
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	simulateCmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address for encounter storage (empty uses in-memory)")
	simulateCmd.Flags().BoolVar(&autoMode, "auto", false, "resolve off-grid without the board")
	simulateCmd.Flags().IntVar(&maxRounds, "max-rounds", 200, "abort after this many rounds")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	fmt.Printf("seed: %d\n", seed)

	dice := roller.NewSeeded(seed)
	player, enemy := demoArmies()

	if autoMode {
		result, err := combat.AutoResolve(player, enemy, dice)
		if err != nil {
			return err
		}
		if result.PlayerWins {
			fmt.Printf("player wins after %d rounds, %d experience\n", result.Rounds, result.Experience)
		} else {
			fmt.Printf("enemy wins after %d rounds\n", result.Rounds)
		}
		for _, survivor := range result.Survivors {
			fmt.Printf("  survivor: %s x%d\n", survivor.Name, survivor.Count)
		}
		return nil
	}

	ctx := context.Background()

	repo, err := buildRepository()
	if err != nil {
		return err
	}

	eventBus := events.NewBus()
	ruleTable := rules.Default()

	svc, err := encounter.NewOrchestrator(&encounter.Config{
		Repository:  repo,
		IDGenerator: idgen.NewUUID("enc"),
		Roller:      dice,
		EventBus:    eventBus,
		Rules:       ruleTable,
	})
	if err != nil {
		return err
	}

	created, err := svc.CreateEncounter(ctx, &encounter.CreateEncounterInput{
		PlayerArmy: player,
		EnemyArmy:  enemy,
	})
	if err != nil {
		return err
	}
	fmt.Printf("encounter: %s\n", created.EncounterID)

	opening, err := svc.GetEncounter(ctx, &encounter.GetEncounterInput{EncounterID: created.EncounterID})
	if err != nil {
		return err
	}
	fmt.Printf("turn order: %s\n", strings.Join(opening.TurnOrder, ", "))

	brain := ai.NewGreedy(ruleTable)

	for {
		next, err := svc.NextActor(ctx, &encounter.NextActorInput{EncounterID: created.EncounterID})
		if err != nil {
			return err
		}
		printEvents(next.Events)
		if !next.HasActor {
			break
		}
		if next.Round > maxRounds {
			fmt.Printf("aborted after %d rounds\n", maxRounds)
			return nil
		}

		if err := playTurn(ctx, svc, repo, brain, dice, created.EncounterID, next.ActorID); err != nil {
			return err
		}
	}

	final, err := svc.GetEncounter(ctx, &encounter.GetEncounterInput{EncounterID: created.EncounterID})
	if err != nil {
		return err
	}
	fmt.Printf("outcome: %s after %d rounds, %d experience\n",
		final.Result.Outcome, final.Result.Rounds, final.Result.Experience)
	for _, survivor := range final.Result.Survivors {
		fmt.Printf("  survivor: %s x%d (%d hp)\n", survivor.Name, survivor.Count, survivor.CurrentHP)
	}
	return nil
}

// playTurn drives one actor through the service: pick an action against a
// read model restored from storage, submit it, repeat while the turn is
// still open (moves do not end it).
func playTurn(ctx context.Context, svc encounter.Service, repo encounters.Repository, brain *ai.Greedy, dice *roller.Seeded, encounterID, actorID string) error {
	for {
		got, err := repo.Get(ctx, &encounters.GetInput{EncounterID: encounterID})
		if err != nil {
			return err
		}
		model, err := combat.Restore(got.Data.State, &combat.Dependencies{
			Roller:   dice,
			EventBus: events.NewBus(),
		})
		if err != nil {
			return err
		}

		action, err := brain.ChooseAction(model, actorID)
		if err != nil {
			return err
		}

		out, err := svc.SubmitAction(ctx, &encounter.SubmitActionInput{
			EncounterID: encounterID,
			Action:      action,
		})
		if err != nil {
			return err
		}
		printEvents(out.Events)

		if action.Kind != combat.ActionMove || out.State == combat.StateResolved {
			return nil
		}
	}
}

func buildRepository() (encounters.Repository, error) {
	if redisAddr == "" {
		return encounters.NewInMemory(nil), nil
	}
	client, err := redis.NewClient(redisAddr, nil)
	if err != nil {
		return nil, err
	}
	return encounters.NewRedisRepository(&encounters.Config{
		Client: client,
		Clock:  &clock.Real{},
	})
}

func printEvents(evts []combat.LogEvent) {
	for _, e := range evts {
		switch {
		case e.Position != nil && e.TargetID != "":
			fmt.Printf("[r%d] %-14s %s -> %s at (%d,%d) value=%d\n",
				e.Round, e.Kind, e.ActorID, e.TargetID, e.Position.X, e.Position.Y, e.Value)
		case e.Position != nil:
			fmt.Printf("[r%d] %-14s %s at (%d,%d)\n",
				e.Round, e.Kind, e.ActorID, e.Position.X, e.Position.Y)
		case e.TargetID != "":
			fmt.Printf("[r%d] %-14s %s -> %s value=%d hp=%d\n",
				e.Round, e.Kind, e.ActorID, e.TargetID, e.Value, e.TargetHP)
		case e.ActorID != "":
			fmt.Printf("[r%d] %-14s %s\n", e.Round, e.Kind, e.ActorID)
		default:
			fmt.Printf("[r%d] %-14s\n", e.Round, e.Kind)
		}
	}
}

// demoArmies is a balanced pair of forces that shows off every ability:
// charge cavalry, flying raiders, a healer, and a fireball caster.
func demoArmies() ([]entities.StackSpec, []entities.StackSpec) {
	player := []entities.StackSpec{
		{
			Stats: entities.StackStats{
				Name: "Swordsman", MaxHP: 14, AttackMin: 2, AttackMax: 4,
				DefenceMelee: 2, DefenceRanged: 1, Speed: 3,
				AttackRange: 1, MinRange: 1, Initiative: 8,
				RetaliationsPerRound: 1,
			},
			Count: 6,
		},
		{
			Stats: entities.StackStats{
				Name: "Archer", MaxHP: 8, AttackMin: 3, AttackMax: 5,
				Speed: 3, AttackRange: 5, MinRange: 2, Initiative: 6,
				RetaliationsPerRound: 1,
			},
			Count: 4,
		},
		{
			Stats: entities.StackStats{
				Name: "Boar Rider", MaxHP: 18, AttackMin: 3, AttackMax: 6,
				DefenceMelee: 1, Speed: 3, AttackRange: 1, MinRange: 1,
				Initiative: 7, RetaliationsPerRound: 1,
				Abilities: []string{rules.AbilityCharge},
			},
			Count: 3,
		},
		{
			Stats: entities.StackStats{
				Name: "Cleric", MaxHP: 12, AttackMin: 1, AttackMax: 3,
				Speed: 2, AttackRange: 1, MinRange: 1, Initiative: 10,
				RetaliationsPerRound: 1, Mana: 10,
				Abilities: []string{rules.AbilityPassiveHeal},
			},
			Count: 2,
		},
		{
			Stats: entities.StackStats{
				Name: "Mage", MaxHP: 10, AttackMin: 2, AttackMax: 3,
				Speed: 2, AttackRange: 4, MinRange: 2, Initiative: 9,
				RetaliationsPerRound: 1, Mana: 10,
				Abilities: []string{rules.SpellFireball},
			},
			Count: 1,
		},
	}

	enemy := []entities.StackSpec{
		{
			Stats: entities.StackStats{
				Name: "Orc", MaxHP: 20, AttackMin: 3, AttackMax: 5,
				DefenceMelee: 1, Speed: 2, AttackRange: 1, MinRange: 1,
				Initiative: 5, RetaliationsPerRound: 1,
			},
			Count: 5,
		},
		{
			Stats: entities.StackStats{
				Name: "Wolf", MaxHP: 9, AttackMin: 2, AttackMax: 4,
				Speed: 4, AttackRange: 1, MinRange: 1, Initiative: 7,
				RetaliationsPerRound: 1,
			},
			Count: 5,
		},
		{
			Stats: entities.StackStats{
				Name: "Harpy", MaxHP: 11, AttackMin: 2, AttackMax: 3,
				Speed: 3, AttackRange: 1, MinRange: 1, Initiative: 9,
				RetaliationsPerRound: 1,
				Abilities: []string{rules.AbilityFlying},
			},
			Count: 4,
		},
		{
			Stats: entities.StackStats{
				Name: "Shaman", MaxHP: 12, AttackMin: 2, AttackMax: 4,
				Speed: 2, AttackRange: 3, MinRange: 2, Initiative: 8,
				RetaliationsPerRound: 1, Mana: 5,
				Abilities: []string{rules.SpellFireball},
			},
			Count: 2,
		},
	}

	return player, enemy
}
