package persistence

import "fmt"

// PopulationRow is one species count at one site.
type PopulationRow struct {
	SiteID      int `db:"site_id" json:"site_id"`
	SpeciesID   int `db:"species_id" json:"species_id"`
	Individuals int `db:"individuals" json:"individuals"`
}

// LinkRow is one stored coexistence link.
type LinkRow struct {
	Kind  int     `db:"kind" json:"kind"`
	From  int     `db:"from_species" json:"from"`
	To    int     `db:"to_species" json:"to"`
	Value float64 `db:"value" json:"value"`
}

// SOCRow is the averaged rates of one species at one site.
type SOCRow struct {
	SiteID       int     `db:"site_id" json:"site_id"`
	SpeciesID    int     `db:"species_id" json:"species_id"`
	Birth        float64 `db:"birth" json:"birth"`
	Death        float64 `db:"death" json:"death"`
	Migration    float64 `db:"migration" json:"migration"`
	NaturalDeath float64 `db:"natural_death" json:"natural_death"`
	Trials       int     `db:"trials" json:"trials"`
	Individuals  int     `db:"individuals" json:"individuals"`
}

// Runs returns the most recent runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT * FROM runs ORDER BY started_at DESC, seed, realization LIMIT ?",
		limit,
	)
	return runs, err
}

// GetRun returns one run by id.
func (db *DB) GetRun(id string) (Run, error) {
	var r Run
	if err := db.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", id); err != nil {
		return r, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// Snapshot returns the population recorded at tick.
func (db *DB) Snapshot(runID string, tick int) ([]PopulationRow, error) {
	var rows []PopulationRow
	err := db.conn.Select(&rows,
		`SELECT site_id, species_id, individuals FROM populations
		 WHERE run_id = ? AND tick = ? ORDER BY site_id, species_id`,
		runID, tick,
	)
	return rows, err
}

// SpeciesSeries returns the total of one species per recorded tick.
func (db *DB) SpeciesSeries(runID string, speciesID int) (map[int]int, error) {
	var rows []struct {
		Tick  int `db:"tick"`
		Total int `db:"total"`
	}
	err := db.conn.Select(&rows,
		`SELECT tick, SUM(individuals) AS total FROM populations
		 WHERE run_id = ? AND species_id = ? GROUP BY tick ORDER BY tick`,
		runID, speciesID,
	)
	if err != nil {
		return nil, err
	}
	series := make(map[int]int, len(rows))
	for _, r := range rows {
		series[r.Tick] = r.Total
	}
	return series, nil
}

// TotalMigrants returns the number of individuals moved over a run.
func (db *DB) TotalMigrants(runID string) (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COALESCE(SUM(moved), 0) FROM migrations WHERE run_id = ?", runID)
	return n, err
}

// SOC returns the stored SOC averages of a run.
func (db *DB) SOC(runID string) ([]SOCRow, error) {
	var rows []SOCRow
	err := db.conn.Select(&rows,
		`SELECT site_id, species_id, birth, death, migration, natural_death, trials, individuals
		 FROM soc_params WHERE run_id = ? ORDER BY site_id, species_id`,
		runID,
	)
	return rows, err
}

// NetworkLinks returns the coexistence links stored at tick.
func (db *DB) NetworkLinks(runID string, tick int) ([]LinkRow, error) {
	var rows []LinkRow
	err := db.conn.Select(&rows,
		`SELECT kind, from_species, to_species, value FROM network_links
		 WHERE run_id = ? AND tick = ? ORDER BY kind, from_species, to_species`,
		runID, tick,
	)
	return rows, err
}
