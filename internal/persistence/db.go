// Package persistence provides SQLite-based storage of simulation runs.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/socweb/internal/coexist"
	"github.com/talgya/socweb/internal/ecology"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		realization INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		sites INTEGER NOT NULL,
		species INTEGER NOT NULL,
		params_json TEXT NOT NULL,
		finished_tick INTEGER,
		last_all_alive INTEGER,
		stats_json TEXT
	);

	CREATE TABLE IF NOT EXISTS species (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		species_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		prey_json TEXT NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE TABLE IF NOT EXISTS populations (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		site_id INTEGER NOT NULL,
		species_id INTEGER NOT NULL,
		individuals INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS migrations (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		site_id INTEGER NOT NULL,
		moved INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS soc_params (
		run_id TEXT NOT NULL,
		site_id INTEGER NOT NULL,
		species_id INTEGER NOT NULL,
		birth REAL NOT NULL,
		death REAL NOT NULL,
		migration REAL NOT NULL,
		natural_death REAL NOT NULL,
		trials INTEGER NOT NULL,
		individuals INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS network_links (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		kind INTEGER NOT NULL,
		from_species INTEGER NOT NULL,
		to_species INTEGER NOT NULL,
		value REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_populations_run_tick ON populations(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_migrations_run ON migrations(run_id);
	CREATE INDEX IF NOT EXISTS idx_network_links_run_tick ON network_links(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one recorded realization.
type Run struct {
	ID           string  `db:"id" json:"id"`
	Seed         int64   `db:"seed" json:"seed"`
	Realization  int     `db:"realization" json:"realization"`
	StartedAt    string  `db:"started_at" json:"started_at"`
	Sites        int     `db:"sites" json:"sites"`
	Species      int     `db:"species" json:"species"`
	ParamsJSON   string  `db:"params_json" json:"-"`
	FinishedTick *int    `db:"finished_tick" json:"finished_tick,omitempty"`
	LastAllAlive *int    `db:"last_all_alive" json:"last_all_alive,omitempty"`
	StatsJSON    *string `db:"stats_json" json:"-"`
}

// BeginRun records a new realization and its species, returning the run id.
// params is stored as JSON alongside the run.
func (db *DB) BeginRun(seed int64, realization int, st *ecology.State, params any) (string, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	id := uuid.NewString()

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, seed, realization, started_at, sites, species, params_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, seed, realization, time.Now().UTC().Format(time.RFC3339),
		len(st.Sites), len(st.Species), string(paramsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO species (run_id, idx, species_id, name, prey_json)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, sp := range st.Species {
		prey := make([]int, len(sp.Prey))
		for j, p := range sp.Prey {
			prey[j] = st.Species[p].ID
		}
		preyJSON, _ := json.Marshal(prey)
		if _, err := stmt.Exec(id, i, sp.ID, sp.Name, string(preyJSON)); err != nil {
			return "", fmt.Errorf("insert species %d: %w", sp.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// SaveSnapshot appends the Old count of every species at every site.
func (db *DB) SaveSnapshot(runID string, tick int, st *ecology.State) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO populations (run_id, tick, site_id, species_id, individuals)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, site := range st.Sites {
		for sp, c := range site.Pop {
			if _, err := stmt.Exec(runID, tick, site.ID, st.Species[sp].ID, c.Old); err != nil {
				return fmt.Errorf("insert population at site %d: %w", site.ID, err)
			}
		}
	}

	return tx.Commit()
}

// SaveMigration appends the realized migrants of every site.
func (db *DB) SaveMigration(runID string, tick int, st *ecology.State, moved []int) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, n := range moved {
		_, err := tx.Exec(
			"INSERT INTO migrations (run_id, tick, site_id, moved) VALUES (?, ?, ?, ?)",
			runID, tick, st.Sites[i].ID, n,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveSOC stores the averaged rates of every species at one site.
func (db *DB) SaveSOC(runID string, st *ecology.State, site int) error {
	s := st.SiteAt(site)

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for sp, acc := range s.SOC {
		m := acc.Mean()
		_, err := tx.Exec(`INSERT INTO soc_params
			(run_id, site_id, species_id, birth, death, migration, natural_death, trials, individuals)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, s.ID, st.Species[sp].ID,
			m.Birth, m.Death, m.Migration, m.NaturalDeath, acc.Trials, s.Pop[sp].Old,
		)
		if err != nil {
			return fmt.Errorf("insert SOC params at site %d: %w", s.ID, err)
		}
	}

	return tx.Commit()
}

// SaveNetworks appends the links of every coexistence network at tick.
func (db *DB) SaveNetworks(runID string, tick int, st *ecology.State, nets []coexist.Network) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, n := range nets {
		for _, l := range n.Links {
			_, err := tx.Exec(`INSERT INTO network_links
				(run_id, tick, kind, from_species, to_species, value)
				VALUES (?, ?, ?, ?, ?, ?)`,
				runID, tick, int(n.Kind), st.Species[l.From].ID, st.Species[l.To].ID, l.Value,
			)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// FinishRun stores the final tick, the stability record and run statistics.
func (db *DB) FinishRun(runID string, tick, lastAllAlive int, stats any) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	res, err := db.conn.Exec(
		"UPDATE runs SET finished_tick = ?, last_all_alive = ?, stats_json = ? WHERE id = ?",
		tick, lastAllAlive, string(statsJSON), runID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	slog.Debug("run recorded", "run", runID, "tick", tick, "last_all_alive", lastAllAlive)
	return nil
}

// SaveMeta stores a key-value pair in store metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO store_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM store_meta WHERE key = ?", key)
	return value, err
}
