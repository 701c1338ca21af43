// Package catalogue is the durable relational store for groups, channels,
// and generation-job audit rows (spec.md §3, component C1). It follows the
// teacher's internal/timeline/service.go shape: a thin *sql.DB wrapper with
// hand-written SQL and schema applied as an idempotent batch of
// CREATE-IF-NOT-EXISTS statements, rather than a migration framework or ORM.
package catalogue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/townforge/townforge/internal/worldgen"
)

// ErrNotFound is returned by lookups that find no matching row.
var ErrNotFound = errors.New("catalogue: not found")

// Store is the catalogue's durable relational state.
type Store struct {
	db  *sql.DB
	geo worldgen.Geometry
}

// Open opens (creating if necessary) the sqlite-backed catalogue at the
// given connection string, applying Schema the way
// timeline.NewTimelineService applies its own Schema.
func Open(connectionString string, geo worldgen.Geometry) (*Store, error) {
	dsn := connectionString
	if !strings.Contains(dsn, "?") {
		dsn = "file:" + dsn + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalogue store: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply catalogue schema: %w", err)
	}
	return &Store{db: db, geo: geo}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func isUniqueConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Groups ---------------------------------------------------------------

// UpsertGroup implements the GroupCreated reconciliation of spec.md §4.2:
// if a group with externalID already exists it is returned unchanged
// (created=false); otherwise a new villageIndex is assigned from
// max(existing)+1, its center computed via GridAssign (invariant G2), and
// the row inserted. A (centerX,centerZ) unique-constraint conflict is
// treated as "another writer won" — re-read and return the existing row.
func (s *Store) UpsertGroup(ctx context.Context, externalID, guildID, name string, position int) (*Group, bool, error) {
	if g, err := s.GetGroupByExternalID(ctx, externalID); err == nil {
		return g, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	var maxIdx sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(village_index) FROM groups`).Scan(&maxIdx); err != nil {
		return nil, false, fmt.Errorf("read max village_index: %w", err)
	}
	villageIndex := worldgen.NextVillageIndex(int(maxIdx.Int64))
	center := s.geo.GridAssign(villageIndex)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO groups (external_id, guild_id, name, position, village_index, center_x, center_z)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		externalID, guildID, name, position, villageIndex, center.X, center.Z)
	if isUniqueConflict(err) {
		// Either externalID or (centerX,centerZ) lost a race; re-read.
		if g, gerr := s.GetGroupByExternalID(ctx, externalID); gerr == nil {
			return g, false, nil
		}
		return nil, false, fmt.Errorf("upsert group lost race and could not re-read: %w", err)
	}
	if err != nil {
		return nil, false, fmt.Errorf("insert group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("insert group id: %w", err)
	}
	g, err := s.GetGroup(ctx, id)
	return g, true, err
}

func scanGroup(row interface{ Scan(...any) error }) (*Group, error) {
	var g Group
	if err := row.Scan(&g.ID, &g.ExternalID, &g.GuildID, &g.Name, &g.Position,
		&g.VillageIndex, &g.CenterX, &g.CenterZ, &g.IsArchived, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

const groupColumns = `id, external_id, guild_id, name, position, village_index, center_x, center_z, is_archived, created_at, updated_at`

// GetGroupByExternalID looks up a group by its chat-platform external ID.
func (s *Store) GetGroupByExternalID(ctx context.Context, externalID string) (*Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE external_id = ?`, externalID)
	return scanGroup(row)
}

// GetGroup looks up a group by its surrogate ID.
func (s *Store) GetGroup(ctx context.Context, id int64) (*Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = ?`, id)
	return scanGroup(row)
}

// ListGroups returns all groups, optionally including archived ones,
// ordered by villageIndex.
func (s *Store) ListGroups(ctx context.Context, includeArchived bool) ([]*Group, error) {
	q := `SELECT ` + groupColumns + ` FROM groups`
	if !includeArchived {
		q += ` WHERE is_archived = 0`
	}
	q += ` ORDER BY village_index ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// CountVillages returns the number of non-archived groups.
func (s *Store) CountVillages(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups WHERE is_archived = 0`).Scan(&n)
	return n, err
}

// UpdateGroupName propagates a renamed chat-platform category onto its
// group row; position and center are never touched by a rename (spec.md
// §4.11 mappings/sync "updates existing" rule, mirroring
// UpdateChannelNameTopic's narrow field set for channels).
func (s *Store) UpdateGroupName(ctx context.Context, externalID, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE groups SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE external_id = ?`, name, externalID)
	return err
}

// ArchiveGroup implements GroupDeleted (spec.md §4.2): sets isArchived on
// the group and cascades to every one of its non-archived channels,
// returning the group and the channels that were actually archived by this
// call (for the caller to write ArchiveBuilding audit rows against).
func (s *Store) ArchiveGroup(ctx context.Context, externalID string) (*Group, []*Channel, error) {
	g, err := s.GetGroupByExternalID(ctx, externalID)
	if err != nil {
		return nil, nil, err
	}
	if g.IsArchived {
		return g, nil, nil
	}
	toArchive, err := s.ListChannelsByGroup(ctx, g.ID, false)
	if err != nil {
		return nil, nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `UPDATE groups SET is_archived = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, g.ID); err != nil {
		return nil, nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE channels SET is_archived = 1, updated_at = CURRENT_TIMESTAMP WHERE group_id = ? AND is_archived = 0`, g.ID); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	g.IsArchived = true
	return g, toArchive, nil
}

// --- Channels ---------------------------------------------------------------

func scanChannel(row interface{ Scan(...any) error }) (*Channel, error) {
	var c Channel
	var topic sql.NullString
	var bx, bz sql.NullInt64
	if err := row.Scan(&c.ID, &c.ExternalID, &c.GroupID, &c.Name, &topic, &c.MemberCount, &c.Position,
		&c.BuildingIndex, &bx, &bz, &c.IsArchived, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if topic.Valid {
		t := topic.String
		c.Topic = &t
	}
	if bx.Valid {
		x := int(bx.Int64)
		c.BuildingX = &x
	}
	if bz.Valid {
		z := int(bz.Int64)
		c.BuildingZ = &z
	}
	return &c, nil
}

const channelColumns = `id, external_id, group_id, name, topic, member_count, position, building_index, building_x, building_z, is_archived, created_at, updated_at`

// defaultMemberCount is substituted for a nil memberCount (spec.md §4.7:
// "existing callers that do not supply memberCount default to Medium") —
// any value in the Medium tier's [10,30) range works; 10 is its floor.
const defaultMemberCount = 10

// UpsertChannel implements ChannelCreated (spec.md §4.2): if externalID
// already exists, returns it unchanged (created=false). Otherwise assigns
// buildingIndex = max(non-archived in group)+1 (invariant C1) and inserts.
// memberCount is a pointer so a caller can distinguish "not supplied" (nil,
// resolved to defaultMemberCount) from an explicit zero.
func (s *Store) UpsertChannel(ctx context.Context, externalID string, group *Group, name string, topic *string, memberCount *int, position int) (*Channel, bool, error) {
	if c, err := s.GetChannelByExternalID(ctx, externalID); err == nil {
		return c, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	count := defaultMemberCount
	if memberCount != nil {
		count = *memberCount
	}

	var maxIdx sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(building_index) FROM channels WHERE group_id = ? AND is_archived = 0`, group.ID).Scan(&maxIdx); err != nil {
		return nil, false, fmt.Errorf("read max building_index: %w", err)
	}
	buildingIndex := 0
	if maxIdx.Valid {
		buildingIndex = int(maxIdx.Int64) + 1
	}

	var topicVal any
	if topic != nil {
		topicVal = *topic
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (external_id, group_id, name, topic, member_count, position, building_index)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		externalID, group.ID, name, topicVal, count, position, buildingIndex)
	if isUniqueConflict(err) {
		if c, cerr := s.GetChannelByExternalID(ctx, externalID); cerr == nil {
			return c, false, nil
		}
		return nil, false, fmt.Errorf("upsert channel lost race and could not re-read: %w", err)
	}
	if err != nil {
		return nil, false, fmt.Errorf("insert channel: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	c, err := s.GetChannel(ctx, id)
	return c, true, err
}

// GetChannelByExternalID looks up a channel by its chat-platform external ID.
func (s *Store) GetChannelByExternalID(ctx context.Context, externalID string) (*Channel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE external_id = ?`, externalID)
	return scanChannel(row)
}

// GetChannel looks up a channel by its surrogate ID.
func (s *Store) GetChannel(ctx context.Context, id int64) (*Channel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = ?`, id)
	return scanChannel(row)
}

// ListChannelsByGroup returns the channels owned by a group.
func (s *Store) ListChannelsByGroup(ctx context.Context, groupID int64, includeArchived bool) ([]*Channel, error) {
	q := `SELECT ` + channelColumns + ` FROM channels WHERE group_id = ?`
	if !includeArchived {
		q += ` AND is_archived = 0`
	}
	q += ` ORDER BY building_index ASC`
	rows, err := s.db.QueryContext(ctx, q, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountBuildings returns the number of non-archived channels.
func (s *Store) CountBuildings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM channels WHERE is_archived = 0`).Scan(&n)
	return n, err
}

// ArchiveChannel implements ChannelDeleted (spec.md §4.2). A no-op (but not
// an error) if already archived.
func (s *Store) ArchiveChannel(ctx context.Context, externalID string) (*Channel, error) {
	c, err := s.GetChannelByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if c.IsArchived {
		return c, nil
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE channels SET is_archived = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, c.ID); err != nil {
		return nil, err
	}
	c.IsArchived = true
	return c, nil
}

// UpdateChannelNameTopic implements the ChannelUpdated propagation rule of
// spec.md §4.2: only name and topic are ever written back; buildingIndex
// never re-shuffles on a position change.
func (s *Store) UpdateChannelNameTopic(ctx context.Context, externalID, name string, topic *string) error {
	var topicVal any
	if topic != nil {
		topicVal = *topic
	}
	_, err := s.db.ExecContext(ctx, `UPDATE channels SET name = ?, topic = ?, updated_at = CURRENT_TIMESTAMP WHERE external_id = ?`, name, topicVal, externalID)
	return err
}

// SetChannelBuildCoords is called by the job processor once CreateBuilding
// completes, writing back the materialised (buildingX, buildingZ)
// (invariant C2).
func (s *Store) SetChannelBuildCoords(ctx context.Context, channelID int64, x, z int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE channels SET building_x = ?, building_z = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, x, z, channelID)
	return err
}

// SearchBuildings implements /api/buildings/search (spec.md §4.11): a
// case-insensitive substring match over non-archived channel names, top 10,
// shortest-name-first.
func (s *Store) SearchBuildings(ctx context.Context, q string, limit int) ([]*Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+channelColumns+` FROM channels
		WHERE is_archived = 0 AND LOWER(name) LIKE '%' || LOWER(?) || '%'`, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Name) < len(out[j].Name) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Generation jobs --------------------------------------------------------

func scanJob(row interface{ Scan(...any) error }) (*GenerationJob, error) {
	var j GenerationJob
	var lastErr sql.NullString
	var completedAt sql.NullTime
	if err := row.Scan(&j.ID, &j.Type, &j.Payload, &j.Status, &j.Attempts, &lastErr, &j.CreatedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	j.LastError = lastErr.String
	if completedAt.Valid {
		t := completedAt.Time
		j.CompletedAt = &t
	}
	return &j, nil
}

const jobColumns = `id, job_type, payload, status, attempts, last_error, created_at, completed_at`

// CreateJob inserts a new Pending audit row for a dispatched job type
// (spec.md §3, invariant J1's initial state).
func (s *Store) CreateJob(ctx context.Context, jobType, payload string) (*GenerationJob, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO generation_jobs (job_type, payload, status) VALUES (?, ?, ?)`, jobType, payload, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetJob(ctx, id)
}

// GetJob looks up a generation job by ID.
func (s *Store) GetJob(ctx context.Context, id int64) (*GenerationJob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM generation_jobs WHERE id = ?`, id)
	return scanJob(row)
}

// MarkJobInProgress transitions Pending -> InProgress and increments
// attempts (spec.md §4.3 dispatch step).
func (s *Store) MarkJobInProgress(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE generation_jobs SET status = ?, attempts = attempts + 1 WHERE id = ?`, StatusInProgress, id)
	return err
}

// MarkJobCompleted transitions InProgress -> Completed and stamps completedAt.
func (s *Store) MarkJobCompleted(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE generation_jobs SET status = ?, completed_at = CURRENT_TIMESTAMP WHERE id = ?`, StatusCompleted, id)
	return err
}

// MarkJobFailed transitions to the terminal Failed state with lastError set.
func (s *Store) MarkJobFailed(ctx context.Context, id int64, lastError string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE generation_jobs SET status = ?, last_error = ? WHERE id = ?`, StatusFailed, lastError, id)
	return err
}

// SetJobPendingForRetry keeps the job audit row at Pending (attempts was
// already incremented by MarkJobInProgress) while recording the transient
// error that triggered the retry (spec.md §4.3 retry semantics).
func (s *Store) SetJobPendingForRetry(ctx context.Context, id int64, lastError string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE generation_jobs SET status = ?, last_error = ? WHERE id = ?`, StatusPending, lastError, id)
	return err
}

// HasCompletedJobOfType reports whether a Completed audit row of the given
// type exists, used by the hub initializer (C6) to decide whether
// CreateCrossroads still needs to run.
func (s *Store) HasCompletedJobOfType(ctx context.Context, jobType string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generation_jobs WHERE job_type = ? AND status = ?`, jobType, StatusCompleted).Scan(&n)
	return n > 0, err
}

// ResetDanglingInProgress implements the startup reconciliation of spec.md
// §7 ("Dangling InProgress"): any row left InProgress by an unclean worker
// shutdown is reset to Pending so the processor can re-enqueue it from its
// stored payload.
func (s *Store) ResetDanglingInProgress(ctx context.Context) ([]*GenerationJob, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM generation_jobs WHERE status = ?`, StatusInProgress)
	if err != nil {
		return nil, err
	}
	var dangling []*GenerationJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		dangling = append(dangling, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, j := range dangling {
		if _, err := s.db.ExecContext(ctx, `UPDATE generation_jobs SET status = ? WHERE id = ?`, StatusPending, j.ID); err != nil {
			return nil, err
		}
		j.Status = StatusPending
	}
	return dangling, nil
}
