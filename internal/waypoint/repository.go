package waypoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/local-api-gateway/internal/host"
)

// DefaultSet is the set every world starts with.
const DefaultSet = "gui.xaero_default"

// Repository defines waypoint persistence operations.
type Repository interface {
	ListSets(ctx context.Context, world string) ([]host.WaypointSet, error)
	GetSet(ctx context.Context, world, name string) (host.WaypointSet, error)
	CreateSet(ctx context.Context, world, name string) (host.WaypointSet, error)
	AddWaypoint(ctx context.Context, world, set string, wp host.Waypoint) error
	EnsureDefault(ctx context.Context, world string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed waypoint repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ListSets returns the world's sets in creation order with their
// waypoints. A world with no sets yields an empty, non-nil slice.
func (r *SQLiteRepository) ListSets(ctx context.Context, world string) ([]host.WaypointSet, error) {
	const query = `SELECT s.id, s.name, w.name, w.initials, w.x, w.y, w.z, w.color, w.disabled
		FROM waypoint_sets s
		LEFT JOIN waypoints w ON w.set_id = s.id
		WHERE s.world = ?
		ORDER BY s.id, w.id`
	rows, err := r.db.QueryContext(ctx, query, world)
	if err != nil {
		return nil, fmt.Errorf("querying waypoint sets for %s: %w", world, err)
	}
	defer rows.Close()

	sets := []host.WaypointSet{}
	lastID := int64(-1)
	for rows.Next() {
		var (
			id       int64
			setName  string
			name     sql.NullString
			initials sql.NullString
			x, y, z  sql.NullInt64
			color    sql.NullInt64
			disabled sql.NullInt64
		)
		if err := rows.Scan(&id, &setName, &name, &initials, &x, &y, &z, &color, &disabled); err != nil {
			return nil, fmt.Errorf("scanning waypoint row: %w", err)
		}
		if id != lastID {
			sets = append(sets, host.WaypointSet{Name: setName, Waypoints: []host.Waypoint{}})
			lastID = id
		}
		if !name.Valid {
			continue
		}
		cur := &sets[len(sets)-1]
		cur.Waypoints = append(cur.Waypoints, host.Waypoint{
			Name:     name.String,
			Initials: initials.String,
			X:        int(x.Int64),
			Y:        int(y.Int64),
			Z:        int(z.Int64),
			Color:    int(color.Int64),
			Disabled: disabled.Int64 != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating waypoint rows: %w", err)
	}
	return sets, nil
}

// GetSet returns one set with its waypoints.
func (r *SQLiteRepository) GetSet(ctx context.Context, world, name string) (host.WaypointSet, error) {
	sets, err := r.ListSets(ctx, world)
	if err != nil {
		return host.WaypointSet{}, err
	}
	for _, s := range sets {
		if s.Name == name {
			return s, nil
		}
	}
	return host.WaypointSet{}, ErrSetNotFound
}

// CreateSet creates an empty set and returns it as stored. Creating a set
// that already exists leaves it untouched and returns it.
func (r *SQLiteRepository) CreateSet(ctx context.Context, world, name string) (host.WaypointSet, error) {
	if name == "" {
		return host.WaypointSet{}, ErrEmptyName
	}
	const query = `INSERT OR IGNORE INTO waypoint_sets (world, name) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, world, name); err != nil {
		return host.WaypointSet{}, fmt.Errorf("inserting waypoint set %s: %w", name, err)
	}
	return r.GetSet(ctx, world, name)
}

// AddWaypoint appends wp to the named set.
func (r *SQLiteRepository) AddWaypoint(ctx context.Context, world, set string, wp host.Waypoint) error {
	if wp.Name == "" {
		return ErrEmptyName
	}

	var setID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM waypoint_sets WHERE world = ? AND name = ?`, world, set).Scan(&setID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSetNotFound
	}
	if err != nil {
		return fmt.Errorf("looking up waypoint set %s: %w", set, err)
	}

	initials := wp.Initials
	if initials == "" {
		initials = Initials(wp.Name)
	}
	const query = `INSERT INTO waypoints (set_id, name, initials, x, y, z, color, disabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		setID, wp.Name, initials, wp.X, wp.Y, wp.Z, wp.Color, boolToInt(wp.Disabled))
	if err != nil {
		return fmt.Errorf("inserting waypoint %s: %w", wp.Name, err)
	}
	return nil
}

// EnsureDefault creates the default set for a world that has none.
func (r *SQLiteRepository) EnsureDefault(ctx context.Context, world string) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM waypoint_sets WHERE world = ?`, world).Scan(&n); err != nil {
		return fmt.Errorf("counting waypoint sets for %s: %w", world, err)
	}
	if n > 0 {
		return nil
	}
	_, err := r.CreateSet(ctx, world, DefaultSet)
	return err
}

// Initials returns the minimap label for a waypoint name: its first
// character, upper-cased.
func Initials(name string) string {
	for _, c := range strings.TrimSpace(name) {
		return strings.ToUpper(string(c))
	}
	return ""
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
