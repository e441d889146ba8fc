package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstore/internal/world"
	"github.com/mesh-intelligence/worldstore/pkg/types"
)

func newRelationshipCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relationship",
		Aliases: []string{"rel"},
		Short:   "Create, adjust, record, and list relationships",
	}
	cmd.AddCommand(
		newRelationshipCreateCmd(a),
		newRelationshipAdjustCmd(a),
		newRelationshipInteractCmd(a),
		newRelationshipListCmd(a),
	)
	return cmd
}

func newRelationshipCreateCmd(a *app) *cobra.Command {
	var (
		relType string
		score   float64
	)
	cmd := &cobra.Command{
		Use:   "create <world> <character-a> <character-b>",
		Short: "Create a relationship between two characters",
		Args:  cobra.ExactArgs(3),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			charA, err := parseID(args[1], "character")
			if err != nil {
				return err
			}
			charB, err := parseID(args[2], "character")
			if err != nil {
				return err
			}
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				rel := types.NewRelationship(w.ID, charA, charB, relType, score)
				if _, err := m.Relationships.Create(rel); err != nil {
					return err
				}
				return a.emit(rel, func() {
					a.printf("Created %s %d: %d -> %d score %g\n", rel.Type, rel.ID, charA, charB, rel.Score)
				})
			})
		}),
	}
	cmd.Flags().StringVar(&relType, "type", types.RelationshipFriendship, "friendship, rivalry, love, hatred, or allegiance")
	cmd.Flags().Float64Var(&score, "score", 0, "initial score")
	return cmd
}

func newRelationshipAdjustCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "adjust <relationship> <delta>",
		Short: "Add delta to a relationship score",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "relationship")
			if err != nil {
				return err
			}
			delta, err := parseFloat(args[1], "delta")
			if err != nil {
				return err
			}
			return a.withManager(func(m *world.Manager) error {
				rel, err := m.Relationships.UpdateScore(id, delta)
				if err != nil {
					return err
				}
				return a.emit(rel, func() {
					a.printf("Relationship %d score %g\n", rel.ID, rel.Score)
				})
			})
		}),
	}
}

func newRelationshipInteractCmd(a *app) *cobra.Command {
	var (
		event string
		data  string
	)
	cmd := &cobra.Command{
		Use:   "interact <relationship>",
		Short: "Append an interaction to a relationship history",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "relationship")
			if err != nil {
				return err
			}
			record := map[string]any{}
			if data != "" {
				if err := json.Unmarshal([]byte(data), &record); err != nil {
					return userError("invalid --data: %s", err)
				}
			}
			if event != "" {
				record["event"] = event
			}
			if len(record) == 0 {
				return userError("interact: --event or --data is required")
			}
			return a.withManager(func(m *world.Manager) error {
				rel, err := m.Relationships.AddInteraction(id, record)
				if err != nil {
					return err
				}
				history, err := rel.History()
				if err != nil {
					return err
				}
				return a.emit(rel, func() {
					a.printf("Relationship %d has %d interactions\n", rel.ID, len(history))
				})
			})
		}),
	}
	cmd.Flags().StringVar(&event, "event", "", "short description of what happened")
	cmd.Flags().StringVar(&data, "data", "", "interaction record as a JSON object")
	return cmd
}

func newRelationshipListCmd(a *app) *cobra.Command {
	var characterID int64
	cmd := &cobra.Command{
		Use:   "list <world>",
		Short: "List relationships of a world or one character",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				var rels []*types.Relationship
				if characterID != 0 {
					rels, err = m.Relationships.ListByCharacter(characterID)
				} else {
					var wc *types.WorldContext
					if wc, err = m.WorldContext(w.ID); err == nil {
						rels = wc.Relationships
					}
				}
				if err != nil {
					return err
				}
				return a.emit(rels, func() {
					for _, r := range rels {
						a.printf("%d\t%d -> %d\t%s\t%g\n", r.ID, r.CharacterAID, r.CharacterBID, r.Type, r.Score)
					}
				})
			})
		}),
	}
	cmd.Flags().Int64Var(&characterID, "character", 0, "only relationships touching this character")
	return cmd
}
