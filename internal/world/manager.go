// Package world composes the entity repositories over one storage handle
// and assembles the full context of a world for the narrative layer.
package world

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mesh-intelligence/worldstore/internal/snapshot"
	"github.com/mesh-intelligence/worldstore/internal/sqlite"
	"github.com/mesh-intelligence/worldstore/pkg/types"
)

// Keys of the constants seeded by CreateWorld.
const (
	ConstantWorldTheme = "world_theme"
	ConstantWorldName  = "world_name"

	// MaxSeededConstants caps the numeric constants copied from world
	// parameters.
	MaxSeededConstants = 10
)

// Manager bundles one repository per entity kind, all bound to the same
// Executor. A Manager built on a Store runs each operation in autocommit
// mode; one handed to a Transaction callback runs inside that transaction.
type Manager struct {
	Worlds        *sqlite.WorldRepository
	Constants     *sqlite.WorldConstantRepository
	Characters    *sqlite.CharacterRepository
	Relationships *sqlite.RelationshipRepository
	Items         *sqlite.ItemRepository
	Inventory     *sqlite.InventoryRepository
	Vehicles      *sqlite.VehicleRepository

	ex      sqlite.Executor
	store   *sqlite.Store // set when the manager owns the handle
	logger  *slog.Logger
	archive *snapshot.Archive
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used by the manager and, through Open, by
// the store.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithArchive enables SaveWorldState and Snapshots.
func WithArchive(a *snapshot.Archive) Option {
	return func(m *Manager) {
		m.archive = a
	}
}

// Open opens the data file at path, initializes the schema, and returns a
// manager that owns the handle. Call Close when done.
func Open(path string, opts ...Option) (*Manager, error) {
	m := newManager(opts)
	store := sqlite.NewStore(path, sqlite.WithLogger(m.logger))
	if err := store.Connect(); err != nil {
		return nil, err
	}
	if err := sqlite.InitSchema(store); err != nil {
		store.Close()
		return nil, err
	}
	m.store = store
	m.bind(store)
	return m, nil
}

// NewManager returns a manager over ex. The caller keeps ownership of ex.
func NewManager(ex sqlite.Executor, opts ...Option) *Manager {
	m := newManager(opts)
	if ex.Logger() != nil && m.logger == discardLogger {
		m.logger = ex.Logger()
	}
	m.bind(ex)
	return m
}

var discardLogger = slog.New(slog.DiscardHandler)

func newManager(opts []Option) *Manager {
	m := &Manager{logger: discardLogger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) bind(ex sqlite.Executor) {
	m.ex = ex
	m.Worlds = sqlite.NewWorldRepository(ex)
	m.Constants = sqlite.NewWorldConstantRepository(ex)
	m.Characters = sqlite.NewCharacterRepository(ex)
	m.Relationships = sqlite.NewRelationshipRepository(ex)
	m.Items = sqlite.NewItemRepository(ex)
	m.Inventory = sqlite.NewInventoryRepository(ex)
	m.Vehicles = sqlite.NewVehicleRepository(ex)
}

// Executor returns the executor the repositories are bound to.
func (m *Manager) Executor() sqlite.Executor {
	return m.ex
}

// Archive returns the snapshot archive, or nil when snapshots are disabled.
func (m *Manager) Archive() *snapshot.Archive {
	return m.archive
}

// Close releases the store when the manager owns it. It is a no-op for a
// manager built with NewManager.
func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

// Transaction runs fn with a manager whose repositories share one scoped
// transaction. fn must use only the manager it is given.
func (m *Manager) Transaction(fn func(*Manager) error) error {
	return m.ex.Transaction(func(tx sqlite.Executor) error {
		scoped := &Manager{logger: m.logger, archive: m.archive}
		scoped.bind(tx)
		return fn(scoped)
	})
}

// WorldContext assembles the world, its typed constants, its characters,
// the relationships touching them, and the inventories of characters that
// hold items. All reads run in one transaction, so the context is
// consistent. A missing world returns types.ErrNotFound.
func (m *Manager) WorldContext(worldID int64) (*types.WorldContext, error) {
	var wc *types.WorldContext
	err := m.Transaction(func(tx *Manager) error {
		w, err := tx.Worlds.Get(worldID)
		if err != nil {
			return err
		}
		wc = types.NewWorldContext(w)

		constants, err := tx.Constants.List(worldID)
		if err != nil {
			return err
		}
		for _, c := range constants {
			v, err := c.TypedValue()
			if err != nil {
				m.logger.Warn("constant kept as raw text",
					"world_id", worldID, "key", c.Key, "data_type", c.DataType, "err", err)
				v = c.Value
			}
			wc.Constants[c.Key] = v
		}

		if wc.Characters, err = tx.Characters.ListByWorld(worldID); err != nil {
			return err
		}

		rels, err := tx.Relationships.ListByWorldCharacters(worldID)
		if err != nil {
			return err
		}
		wc.Relationships = dedupeRelationships(rels)

		if wc.Inventories, err = tx.Inventory.ListByWorld(worldID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wc, nil
}

// dedupeRelationships keeps the first occurrence of each relationship id.
func dedupeRelationships(rels []*types.Relationship) []*types.Relationship {
	seen := make(map[int64]bool, len(rels))
	out := make([]*types.Relationship, 0, len(rels))
	for _, r := range rels {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

// CreateWorld creates a world from extracted parameters. The parameter
// lists become the world settings, and the theme, the name, and up to
// MaxSeededConstants numeric constants are stored as world constants. The
// world and its constants are written in one transaction.
func (m *Manager) CreateWorld(params types.WorldParams) (*types.World, error) {
	params = params.WithDefaults()
	settings, err := params.Settings()
	if err != nil {
		return nil, err
	}
	w := types.NewWorld(params.Name, params.Theme)
	if err := w.SetSettings(settings); err != nil {
		return nil, fmt.Errorf("encoding world settings: %w", err)
	}

	err = m.Transaction(func(tx *Manager) error {
		if _, err := tx.Worlds.Create(w); err != nil {
			return err
		}
		return tx.Constants.SetMany(seedConstants(w.ID, params))
	})
	if err != nil {
		return nil, fmt.Errorf("creating world %q: %w", params.Name, err)
	}
	m.logger.Info("world created", "world_id", w.ID, "name", w.Name, "theme", w.Theme)
	return w, nil
}

func seedConstants(worldID int64, params types.WorldParams) []*types.WorldConstant {
	constants := []*types.WorldConstant{
		{WorldID: worldID, Key: ConstantWorldTheme, Value: params.Theme, DataType: types.DataTypeText, Description: "World theme"},
		{WorldID: worldID, Key: ConstantWorldName, Value: params.Name, DataType: types.DataTypeText, Description: "World name"},
	}
	for i, v := range params.NumericConstants {
		if i == MaxSeededConstants {
			break
		}
		constants = append(constants, &types.WorldConstant{
			WorldID:     worldID,
			Key:         "constant_" + strconv.Itoa(i+1),
			Value:       strconv.FormatFloat(v, 'g', -1, 64),
			DataType:    types.DataTypeReal,
			Description: fmt.Sprintf("Numeric constant %d", i+1),
		})
	}
	return constants
}

// CreatePlayer creates the player character of a world with default
// health and empty skills.
func (m *Manager) CreatePlayer(worldID int64, name, species string) (*types.Character, error) {
	c := types.NewCharacter(worldID, name, types.CharacterPlayer, species)
	if _, err := m.Characters.Create(c); err != nil {
		return nil, err
	}
	m.logger.Info("player created", "world_id", worldID, "character_id", c.ID, "name", name)
	return c, nil
}

// Player returns the first player character of a world, or
// types.ErrNotFound.
func (m *Manager) Player(worldID int64) (*types.Character, error) {
	return m.Characters.Player(worldID)
}

// SaveWorldState archives the current context of a world under label.
// Without an archive it returns types.ErrSnapshotsDisabled.
func (m *Manager) SaveWorldState(worldID int64, label string) (snapshot.Record, error) {
	if m.archive == nil {
		return snapshot.Record{}, types.ErrSnapshotsDisabled
	}
	wc, err := m.WorldContext(worldID)
	if err != nil {
		return snapshot.Record{}, err
	}
	rec, err := m.archive.Append(wc, label)
	if err != nil {
		return snapshot.Record{}, fmt.Errorf("saving state of world %d: %w", worldID, err)
	}
	m.logger.Info("world state saved", "world_id", worldID, "snapshot_id", rec.ID, "label", label)
	return rec, nil
}

// Snapshots lists the archived states of a world, oldest first.
func (m *Manager) Snapshots(worldID int64) ([]snapshot.Record, error) {
	if m.archive == nil {
		return nil, types.ErrSnapshotsDisabled
	}
	return m.archive.List(worldID)
}
