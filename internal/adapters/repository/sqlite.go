package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/dinerly/tablematch/internal/domain/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dsn and runs
// migrations.
func NewSQLiteStore(dsn string, opts ...Option) (*SQLiteStore, error) {
	cfg := newOptions(opts...)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDatabase, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling foreign keys: %v", ErrOpenDatabase, err)
	}
	if cfg.busyTimeoutMS > 0 {
		if _, err := db.ExecContext(context.Background(), fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeoutMS)); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: setting busy timeout: %v", ErrOpenDatabase, err)
		}
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS pairing_guests (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL,
			age INTEGER,
			gender TEXT,
			budget TEXT,
			relationship TEXT,
			answers TEXT,
			notified INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pairing_guests_event ON pairing_guests(event_id)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL,
			guest_id TEXT NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_event ON bookings(event_id, status)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			guest_id TEXT PRIMARY KEY,
			age INTEGER,
			gender TEXT,
			budget TEXT,
			relationship TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS assessments (
			guest_id TEXT PRIMARY KEY,
			answers TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS avoid_constraints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT,
			participant_a TEXT NOT NULL,
			participant_b TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_avoid_event ON avoid_constraints(event_id)`,
		`CREATE TABLE IF NOT EXISTS groups (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL,
			name TEXT NOT NULL,
			average_age INTEGER NOT NULL,
			dominant_budget TEXT NOT NULL,
			compatibility_score INTEGER NOT NULL,
			category_distribution TEXT NOT NULL,
			male_count INTEGER NOT NULL,
			female_count INTEGER NOT NULL,
			other_count INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_groups_event ON groups(event_id)`,
		`CREATE TABLE IF NOT EXISTS group_members (
			group_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			participant_id TEXT NOT NULL,
			category TEXT NOT NULL,
			scores TEXT,
			age INTEGER,
			gender TEXT,
			budget_band TEXT,
			relationship TEXT,
			PRIMARY KEY (group_id, position),
			FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS venues (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT,
			capacity INTEGER NOT NULL,
			contact_info TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS tables (
			id TEXT PRIMARY KEY,
			venue_id TEXT NOT NULL,
			group_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			capacity INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tables_event ON tables(event_id)`,
		`CREATE TABLE IF NOT EXISTS seat_assignments (
			event_id TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			venue_id TEXT NOT NULL,
			table_id TEXT NOT NULL,
			seat_number INTEGER NOT NULL,
			PRIMARY KEY (event_id, participant_id)
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("%w: %v\n%s", ErrMigrate, err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Roster returns the guests to match for an event. Pairing guest records
// are the preferred source; an event without any falls back to confirmed
// bookings joined with profile and assessment data.
func (s *SQLiteStore) Roster(ctx context.Context, eventID string) ([]model.GuestRecord, error) {
	guests, err := s.pairingGuests(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(guests) > 0 {
		return guests, nil
	}
	return s.bookedGuests(ctx, eventID)
}

func (s *SQLiteStore) pairingGuests(ctx context.Context, eventID string) ([]model.GuestRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, age, gender, budget, relationship, answers
		 FROM pairing_guests WHERE event_id = ? ORDER BY id`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guests []model.GuestRecord
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

func (s *SQLiteStore) bookedGuests(ctx context.Context, eventID string) ([]model.GuestRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.guest_id, p.age, p.gender, p.budget, p.relationship, a.answers
		 FROM bookings b
		 LEFT JOIN profiles p ON p.guest_id = b.guest_id
		 LEFT JOIN assessments a ON a.guest_id = b.guest_id
		 WHERE b.event_id = ? AND b.status = 'confirmed'
		 ORDER BY b.guest_id`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guests []model.GuestRecord
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

func scanGuest(rows *sql.Rows) (model.GuestRecord, error) {
	var g model.GuestRecord
	var age sql.NullInt64
	var gender, budget, relationship, answers sql.NullString

	if err := rows.Scan(&g.ID, &age, &gender, &budget, &relationship, &answers); err != nil {
		return model.GuestRecord{}, err
	}
	if age.Valid {
		g.Age = int(age.Int64)
	}
	g.Gender = gender.String
	g.Budget = budget.String
	g.Relationship = relationship.String
	if answers.Valid && answers.String != "" {
		// A malformed blob degrades to "no assessment data" rather than
		// failing the whole roster fetch.
		_ = json.Unmarshal([]byte(answers.String), &g.Answers)
	}
	return g, nil
}

// AvoidConstraints returns event-scoped and global avoid-pairs.
func (s *SQLiteStore) AvoidConstraints(ctx context.Context, eventID string) ([]model.AvoidConstraint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_a, participant_b FROM avoid_constraints
		 WHERE event_id = ? OR event_id IS NULL ORDER BY id`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []model.AvoidConstraint
	for rows.Next() {
		var c model.AvoidConstraint
		if err := rows.Scan(&c.ParticipantA, &c.ParticipantB); err != nil {
			return nil, err
		}
		constraints = append(constraints, c)
	}
	return constraints, rows.Err()
}

// ParticipantExists reports whether a guest id is still known, as either a
// pairing guest or a booked guest.
func (s *SQLiteStore) ParticipantExists(ctx context.Context, participantID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 WHERE EXISTS (SELECT 1 FROM pairing_guests WHERE id = ?)
		 OR EXISTS (SELECT 1 FROM bookings WHERE guest_id = ?)`,
		participantID, participantID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveGroups replaces the stored groups for an event in one transaction.
func (s *SQLiteStore) SaveGroups(ctx context.Context, eventID string, groups []model.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id IN (SELECT id FROM groups WHERE event_id = ?)`,
		eventID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE event_id = ?`, eventID); err != nil {
		return err
	}

	for i := range groups {
		if err := insertGroup(ctx, tx, eventID, &groups[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertGroup(ctx context.Context, tx *sql.Tx, eventID string, g *model.Group) error {
	dist, err := json.Marshal(g.CategoryDistribution)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO groups (id, event_id, name, average_age, dominant_budget,
			compatibility_score, category_distribution, male_count, female_count, other_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, eventID, g.Name, g.AverageAge, g.DominantBudgetBand,
		g.CompatibilityScore, string(dist),
		g.GenderDistribution.Male, g.GenderDistribution.Female, g.GenderDistribution.Other); err != nil {
		return err
	}

	for pos := range g.Participants {
		p := &g.Participants[pos]
		scores, err := json.Marshal(p.CategoryScores)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, position, participant_id, category,
				scores, age, gender, budget_band, relationship)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, pos, p.ID, string(p.Category), string(scores),
			p.Age, p.Gender, p.BudgetBand, p.Relationship); err != nil {
			return err
		}
	}
	return nil
}

// Groups returns the stored groups for an event, members included, in name
// order.
func (s *SQLiteStore) Groups(ctx context.Context, eventID string) ([]model.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, name, average_age, dominant_budget, compatibility_score,
			category_distribution, male_count, female_count, other_count
		 FROM groups WHERE event_id = ? ORDER BY name`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		members, err := s.groupMembers(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Participants = members
	}
	return groups, nil
}

// Group returns one stored group by id.
func (s *SQLiteStore) Group(ctx context.Context, groupID string) (model.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, name, average_age, dominant_budget, compatibility_score,
			category_distribution, male_count, female_count, other_count
		 FROM groups WHERE id = ?`,
		groupID)
	if err != nil {
		return model.Group{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Group{}, err
		}
		return model.Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	g, err := scanGroup(rows)
	if err != nil {
		return model.Group{}, err
	}
	rows.Close()

	members, err := s.groupMembers(ctx, g.ID)
	if err != nil {
		return model.Group{}, err
	}
	g.Participants = members
	return g, nil
}

func scanGroup(rows *sql.Rows) (model.Group, error) {
	var g model.Group
	var dist string
	if err := rows.Scan(&g.ID, &g.EventID, &g.Name, &g.AverageAge, &g.DominantBudgetBand,
		&g.CompatibilityScore, &dist,
		&g.GenderDistribution.Male, &g.GenderDistribution.Female, &g.GenderDistribution.Other); err != nil {
		return model.Group{}, err
	}
	g.CategoryDistribution = make(map[model.Category]int)
	_ = json.Unmarshal([]byte(dist), &g.CategoryDistribution)
	return g, nil
}

func (s *SQLiteStore) groupMembers(ctx context.Context, groupID string) ([]model.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_id, category, scores, age, gender, budget_band, relationship
		 FROM group_members WHERE group_id = ? ORDER BY position`,
		groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []model.Participant
	for rows.Next() {
		var p model.Participant
		var category string
		var scores sql.NullString
		var age sql.NullInt64
		var gender, band, relationship sql.NullString
		if err := rows.Scan(&p.ID, &category, &scores, &age, &gender, &band, &relationship); err != nil {
			return nil, err
		}
		p.Category = model.Category(category)
		if scores.Valid && scores.String != "" {
			p.CategoryScores = make(map[model.Category]float64)
			_ = json.Unmarshal([]byte(scores.String), &p.CategoryScores)
		}
		if age.Valid {
			p.Age = int(age.Int64)
		}
		p.Gender = gender.String
		p.BudgetBand = band.String
		p.Relationship = relationship.String
		members = append(members, p)
	}
	return members, rows.Err()
}

// UpdateGroupMetrics rewrites one group's derived fields.
func (s *SQLiteStore) UpdateGroupMetrics(ctx context.Context, g model.Group) error {
	dist, err := json.Marshal(g.CategoryDistribution)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE groups SET average_age = ?, dominant_budget = ?, compatibility_score = ?,
			category_distribution = ?, male_count = ?, female_count = ?, other_count = ?
		 WHERE id = ?`,
		g.AverageAge, g.DominantBudgetBand, g.CompatibilityScore, string(dist),
		g.GenderDistribution.Male, g.GenderDistribution.Female, g.GenderDistribution.Other,
		g.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, g.ID)
	}
	return nil
}

// ReplaceGroupMembers swaps one group's membership in a single transaction.
func (s *SQLiteStore) ReplaceGroupMembers(ctx context.Context, groupID string, members []model.Participant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM groups WHERE id = ?`, groupID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
		}
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ?`, groupID); err != nil {
		return err
	}

	for pos := range members {
		p := &members[pos]
		scores, err := json.Marshal(p.CategoryScores)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, position, participant_id, category,
				scores, age, gender, budget_band, relationship)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			groupID, pos, p.ID, string(p.Category), string(scores),
			p.Age, p.Gender, p.BudgetBand, p.Relationship); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveVenue inserts or updates a venue record.
func (s *SQLiteStore) SaveVenue(ctx context.Context, v model.Venue) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO venues (id, name, address, capacity, contact_info)
		 VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.Address, v.TotalCapacity, v.ContactInfo)
	return err
}

// SaveTable inserts a table record. The event id denormalized onto the row
// keeps ClearEvent a simple per-event delete.
func (s *SQLiteStore) SaveTable(ctx context.Context, t model.Table) error {
	var eventID string
	err := s.db.QueryRowContext(ctx,
		`SELECT event_id FROM groups WHERE id = ?`, t.GroupID).Scan(&eventID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tables (id, venue_id, group_id, event_id, capacity) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.VenueID, t.GroupID, eventID, t.Capacity)
	return err
}

// SaveAssignments writes seat assignments for an event, replacing any
// existing assignment for the same participant.
func (s *SQLiteStore) SaveAssignments(ctx context.Context, eventID string, assignments []model.SeatAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for i := range assignments {
		a := &assignments[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO seat_assignments
				(event_id, participant_id, venue_id, table_id, seat_number)
			 VALUES (?, ?, ?, ?, ?)`,
			eventID, a.ParticipantID, a.VenueID, a.TableID, a.SeatNumber); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ResetNotificationFlags clears the pairing-notification flag for every
// guest of the event.
func (s *SQLiteStore) ResetNotificationFlags(ctx context.Context, eventID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE pairing_guests SET notified = 0 WHERE event_id = ?`, eventID)
	return err
}

// ClearEvent wipes all seating state for an event in a single transaction.
func (s *SQLiteStore) ClearEvent(ctx context.Context, eventID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	steps := []string{
		`DELETE FROM seat_assignments WHERE event_id = ?`,
		`DELETE FROM tables WHERE event_id = ?`,
		`DELETE FROM group_members WHERE group_id IN (SELECT id FROM groups WHERE event_id = ?)`,
		`DELETE FROM groups WHERE event_id = ?`,
		`UPDATE pairing_guests SET notified = 0 WHERE event_id = ?`,
	}
	for _, q := range steps {
		if _, err := tx.ExecContext(ctx, q, eventID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Seed helpers used by fixtures and the simload tool.

// InsertPairingGuest stores one pairing guest record.
func (s *SQLiteStore) InsertPairingGuest(ctx context.Context, eventID string, g model.GuestRecord) error {
	var answers any
	if g.Answers != nil {
		blob, err := json.Marshal(g.Answers)
		if err != nil {
			return err
		}
		answers = string(blob)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pairing_guests (id, event_id, age, gender, budget, relationship, answers)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, eventID, g.Age, g.Gender, g.Budget, g.Relationship, answers)
	return err
}

// InsertBookedGuest stores one confirmed booking with its profile and
// optional assessment, feeding the fallback roster path.
func (s *SQLiteStore) InsertBookedGuest(ctx context.Context, bookingID, eventID string, g model.GuestRecord) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (id, event_id, guest_id, status) VALUES (?, ?, ?, 'confirmed')`,
		bookingID, eventID, g.ID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO profiles (guest_id, age, gender, budget, relationship)
		 VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.Age, g.Gender, g.Budget, g.Relationship); err != nil {
		return err
	}
	if g.Answers != nil {
		blob, err := json.Marshal(g.Answers)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO assessments (guest_id, answers) VALUES (?, ?)`,
			g.ID, string(blob)); err != nil {
			return err
		}
	}
	return nil
}

// InsertAvoidConstraint stores one avoid-pair. An empty eventID records a
// global constraint.
func (s *SQLiteStore) InsertAvoidConstraint(ctx context.Context, eventID string, c model.AvoidConstraint) error {
	var event any
	if eventID != "" {
		event = eventID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO avoid_constraints (event_id, participant_a, participant_b) VALUES (?, ?, ?)`,
		event, c.ParticipantA, c.ParticipantB)
	return err
}
