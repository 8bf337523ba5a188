package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// SQLStore implements Store on top of sqlx. Queries are written with '?'
// placeholders and rebound for the active driver.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	clock  *clock
}

// Open connects to the database without touching the schema.
func Open(driver, dsn string) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite only supports one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	return &SQLStore{
		db:     db,
		driver: driver,
		clock:  newClock(time.Now),
	}, nil
}

// Connect opens the database and brings the schema up to date.
func Connect(driver, dsn string) (*SQLStore, error) {
	s, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore opens (creating if needed) a migrated SQLite database at path.
func NewSQLiteStore(path string) (*SQLStore, error) {
	return Connect(DriverSQLite, SQLiteDSN(path))
}

// SQLiteDSN enables foreign keys, WAL and a busy timeout for the database at path.
func SQLiteDSN(path string) string {
	return path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) q(query string) string {
	return s.db.Rebind(query)
}

// Users

func (s *SQLStore) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().UnixMilli()
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO users (id, wallet_address, nickname, avatar_url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), user.ID, user.WalletAddress, user.Nickname, user.AvatarURL, user.CreatedAt)

	return classify(err)
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, s.q(`
		SELECT id, wallet_address, nickname, avatar_url, created_at
		FROM users WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error) {
	if update.Empty() {
		return s.GetUser(ctx, id)
	}

	var sets []string
	var args []any
	if update.Nickname != nil {
		sets = append(sets, "nickname = ?")
		args = append(args, *update.Nickname)
	}
	if update.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		if *update.AvatarURL == "" {
			args = append(args, nil)
		} else {
			args = append(args, *update.AvatarURL)
		}
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		s.q("UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	if err != nil {
		return nil, classify(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}

	return s.GetUser(ctx, id)
}

// Posts

const postSelect = `
	SELECT s.id, s.user_id, COALESCE(u.nickname, '') AS nickname, s.parent_id, s.content,
		COALESCE(s.title, '') AS title, COALESCE(s.image_url, '') AS image_url, s.timestamp,
		(SELECT COUNT(*) FROM likes l WHERE l.post_id = s.id) AS like_count,
		(SELECT COUNT(*) FROM reposts r WHERE r.post_id = s.id) AS repost_count,
		s.is_repost, s.depth, s.parent_post_id,
		COALESCE(s.ip_asset_id, '') AS ip_asset_id,
		COALESCE(s.ip_tx_hash, '') AS ip_tx_hash,
		COALESCE(s.license_term_id, '') AS license_term_id
	FROM stories s
	LEFT JOIN users u ON u.id = s.user_id
`

func (s *SQLStore) CreatePost(ctx context.Context, post *Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	post.Timestamp = s.clock.next()

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO stories (id, user_id, parent_id, content, title, image_url, timestamp, is_repost, depth, parent_post_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), post.ID, post.UserID, post.ParentID, post.Content, nullString(post.Title),
		nullString(post.ImageURL), post.Timestamp, post.IsRepost, post.Depth, post.ParentPostID)

	return classify(err)
}

func (s *SQLStore) GetPost(ctx context.Context, id string) (*Post, error) {
	var post Post
	err := s.db.GetContext(ctx, &post, s.q(postSelect+` WHERE s.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *SQLStore) ListPosts(ctx context.Context, opts ListOptions) ([]*Post, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}

	posts := []*Post{}
	err := s.db.SelectContext(ctx, &posts, s.q(postSelect+`
		ORDER BY s.timestamp DESC, s.id DESC
		LIMIT ?
	`), opts.Limit)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *SQLStore) ListChildren(ctx context.Context, parentID string) ([]*Post, error) {
	posts := []*Post{}
	err := s.db.SelectContext(ctx, &posts, s.q(postSelect+`
		WHERE s.parent_id = ?
		ORDER BY s.timestamp DESC, s.id DESC
	`), parentID)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// DeleteReposts removes every repost row userID materialized from parentPostID.
func (s *SQLStore) DeleteReposts(ctx context.Context, parentPostID, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM stories WHERE parent_post_id = ? AND user_id = ? AND is_repost = ?
	`), parentPostID, userID, true)
	if err != nil {
		return 0, classify(err)
	}
	return res.RowsAffected()
}

// SetPostIPAsset records the registration once. A second registration of the
// same story returns ErrConflict.
func (s *SQLStore) SetPostIPAsset(ctx context.Context, id string, asset IPAsset) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE stories SET ip_asset_id = ?, ip_tx_hash = ?, license_term_id = ?
		WHERE id = ? AND ip_asset_id IS NULL
	`), asset.AssetID, nullString(asset.TxHash), nullString(asset.LicenseTermID), id)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: story %s already registered or missing", ErrConflict, id)
	}
	return nil
}

// Likes and reposts

func (s *SQLStore) HasInteraction(ctx context.Context, kind InteractionKind, postID, userID string) (bool, error) {
	table := kind.table()
	if table == "" {
		return false, fmt.Errorf("unknown interaction %q", kind)
	}

	var found int
	err := s.db.GetContext(ctx, &found, s.q(`
		SELECT 1 FROM `+table+` WHERE post_id = ? AND user_id = ?
	`), postID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) AddInteraction(ctx context.Context, kind InteractionKind, postID, userID string) error {
	table := kind.table()
	if table == "" {
		return fmt.Errorf("unknown interaction %q", kind)
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO `+table+` (post_id, user_id, created_at) VALUES (?, ?, ?)
	`), postID, userID, time.Now().UnixMilli())

	return classify(err)
}

func (s *SQLStore) RemoveInteraction(ctx context.Context, kind InteractionKind, postID, userID string) error {
	table := kind.table()
	if table == "" {
		return fmt.Errorf("unknown interaction %q", kind)
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM `+table+` WHERE post_id = ? AND user_id = ?
	`), postID, userID)

	return classify(err)
}

// Helpers

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// clock hands out strictly increasing millisecond timestamps so that
// recency ordering is stable for posts created within the same millisecond.
type clock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newClock(now func() time.Time) *clock {
	return &clock{now: now}
}

func (c *clock) next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)
