package sqlite

import (
	"fmt"
	"slices"
)

// Table names. They are part of the data file format and match files
// written by earlier versions of the game.
const (
	TableWorlds           = "Worlds"
	TableWorldConstants   = "WorldConstants"
	TableCharacters       = "Characters"
	TableRelationships    = "Relationships"
	TableItems            = "Items"
	TableItemInstances    = "ItemInstances"
	TableInventory        = "Inventory"
	TableVehicles         = "Vehicles"
	TableVehicleInventory = "VehicleInventory"
)

// Schema DDL for all tables, in dependency order.
const (
	createWorlds = `CREATE TABLE IF NOT EXISTS Worlds (
    world_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    theme TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    is_active BOOLEAN DEFAULT 1,
    settings_json TEXT DEFAULT '{}'
);`

	createWorldConstants = `CREATE TABLE IF NOT EXISTS WorldConstants (
    constant_id INTEGER PRIMARY KEY AUTOINCREMENT,
    world_id INTEGER NOT NULL,
    constant_key TEXT NOT NULL,
    constant_value TEXT NOT NULL,
    data_type TEXT CHECK(data_type IN ('INTEGER', 'REAL', 'TEXT', 'BOOLEAN')),
    description TEXT,
    FOREIGN KEY (world_id) REFERENCES Worlds(world_id) ON DELETE CASCADE,
    UNIQUE(world_id, constant_key)
);`

	createCharacters = `CREATE TABLE IF NOT EXISTS Characters (
    character_id INTEGER PRIMARY KEY AUTOINCREMENT,
    world_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    type TEXT CHECK(type IN ('player', 'npc', 'companion', 'enemy')),
    species TEXT,
    skills_json TEXT DEFAULT '{}',
    location_x REAL DEFAULT 0.0,
    location_y REAL DEFAULT 0.0,
    current_health REAL DEFAULT 100.0,
    max_health REAL DEFAULT 100.0,
    state_json TEXT DEFAULT '{}',
    FOREIGN KEY (world_id) REFERENCES Worlds(world_id) ON DELETE CASCADE
);`

	createRelationships = `CREATE TABLE IF NOT EXISTS Relationships (
    relationship_id INTEGER PRIMARY KEY AUTOINCREMENT,
    world_id INTEGER NOT NULL,
    character_a_id INTEGER NOT NULL,
    character_b_id INTEGER NOT NULL,
    relationship_type TEXT CHECK(relationship_type IN ('friendship', 'rivalry', 'love', 'hatred', 'allegiance')),
    score REAL DEFAULT 0.0,
    history_json TEXT DEFAULT '[]',
    last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (world_id) REFERENCES Worlds(world_id) ON DELETE CASCADE,
    FOREIGN KEY (character_a_id) REFERENCES Characters(character_id) ON DELETE CASCADE,
    FOREIGN KEY (character_b_id) REFERENCES Characters(character_id) ON DELETE CASCADE,
    CHECK(character_a_id != character_b_id),
    UNIQUE(world_id, character_a_id, character_b_id, relationship_type)
);`

	createItems = `CREATE TABLE IF NOT EXISTS Items (
    item_id INTEGER PRIMARY KEY AUTOINCREMENT,
    world_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    type TEXT,
    base_properties_json TEXT DEFAULT '{}',
    is_unique BOOLEAN DEFAULT 0,
    FOREIGN KEY (world_id) REFERENCES Worlds(world_id) ON DELETE CASCADE
);`

	createItemInstances = `CREATE TABLE IF NOT EXISTS ItemInstances (
    instance_id INTEGER PRIMARY KEY AUTOINCREMENT,
    world_id INTEGER NOT NULL,
    item_id INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    custom_name TEXT,
    current_properties_json TEXT DEFAULT '{}',
    FOREIGN KEY (world_id) REFERENCES Worlds(world_id) ON DELETE CASCADE,
    FOREIGN KEY (item_id) REFERENCES Items(item_id) ON DELETE CASCADE
);`

	createInventory = `CREATE TABLE IF NOT EXISTS Inventory (
    inventory_id INTEGER PRIMARY KEY AUTOINCREMENT,
    character_id INTEGER NOT NULL,
    item_instance_id INTEGER NOT NULL,
    quantity INTEGER DEFAULT 1,
    condition REAL DEFAULT 100.0,
    custom_properties_json TEXT DEFAULT '{}',
    FOREIGN KEY (character_id) REFERENCES Characters(character_id) ON DELETE CASCADE,
    FOREIGN KEY (item_instance_id) REFERENCES ItemInstances(instance_id) ON DELETE CASCADE
);`

	createVehicles = `CREATE TABLE IF NOT EXISTS Vehicles (
    vehicle_id INTEGER PRIMARY KEY AUTOINCREMENT,
    world_id INTEGER NOT NULL,
    owner_id INTEGER,
    type TEXT CHECK(type IN ('mechanical', 'biological', 'magical')),
    name TEXT NOT NULL,
    components_json TEXT DEFAULT '{}',
    location_x REAL,
    location_y REAL,
    capacity INTEGER DEFAULT 1,
    current_health REAL,
    max_health REAL,
    FOREIGN KEY (world_id) REFERENCES Worlds(world_id) ON DELETE CASCADE,
    FOREIGN KEY (owner_id) REFERENCES Characters(character_id) ON DELETE SET NULL
);`

	createVehicleInventory = `CREATE TABLE IF NOT EXISTS VehicleInventory (
    vehicle_inv_id INTEGER PRIMARY KEY AUTOINCREMENT,
    vehicle_id INTEGER NOT NULL,
    item_instance_id INTEGER NOT NULL,
    quantity INTEGER DEFAULT 1,
    slot TEXT,
    FOREIGN KEY (vehicle_id) REFERENCES Vehicles(vehicle_id) ON DELETE CASCADE,
    FOREIGN KEY (item_instance_id) REFERENCES ItemInstances(instance_id) ON DELETE CASCADE
);`
)

// Index DDL for the hot lookup paths.
const (
	idxCharactersWorld    = `CREATE INDEX IF NOT EXISTS idx_characters_world ON Characters(world_id);`
	idxCharactersLocation = `CREATE INDEX IF NOT EXISTS idx_characters_location ON Characters(world_id, location_x, location_y);`
	idxRelationshipsChars = `CREATE INDEX IF NOT EXISTS idx_relationships_chars ON Relationships(character_a_id, character_b_id);`
	idxInventoryCharacter = `CREATE INDEX IF NOT EXISTS idx_inventory_character ON Inventory(character_id);`
	idxItemsWorld         = `CREATE INDEX IF NOT EXISTS idx_items_world ON Items(world_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createWorlds,
	createWorldConstants,
	createCharacters,
	createRelationships,
	createItems,
	createItemInstances,
	createInventory,
	createVehicles,
	createVehicleInventory,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxCharactersWorld,
	idxCharactersLocation,
	idxRelationshipsChars,
	idxInventoryCharacter,
	idxItemsWorld,
}

var schemaTables = []string{
	TableWorlds,
	TableWorldConstants,
	TableCharacters,
	TableRelationships,
	TableItems,
	TableItemInstances,
	TableInventory,
	TableVehicles,
	TableVehicleInventory,
}

// SchemaTables returns the table names in dependency order.
func SchemaTables() []string {
	return slices.Clone(schemaTables)
}

// InitSchema creates every table and index that does not exist yet, in one
// scoped transaction. Running it against an initialized file changes
// nothing.
func InitSchema(ex Executor) error {
	err := ex.Transaction(func(tx Executor) error {
		for _, stmt := range schemaDDL {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		for _, stmt := range indexDDL {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// TableCount returns the number of rows in table, which must be one of the
// schema tables.
func TableCount(ex Executor, table string) (int64, error) {
	if !slices.Contains(schemaTables, table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	row, err := ex.FetchOne("SELECT COUNT(*) FROM " + table)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, classifyError(err))
	}
	return n, nil
}
