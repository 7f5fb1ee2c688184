package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repository handles database operations for profiles and capture events.
// A re-captured profile keeps its first_seen_at and accumulates seen_count.
type Repository struct {
	db *DB
}

var _ ProfileRepository = (*Repository)(nil)
var _ CaptureRepository = (*Repository)(nil)

// NewRepository creates a new profile repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// UpsertProfile inserts a profile or refreshes its mutable fields,
// incrementing seen_count on every re-encounter.
func (r *Repository) UpsertProfile(p Profile) error {
	_, err := r.db.Exec(`
		INSERT INTO profiles (
			identifier, nickname, tags, city, gender, married, age, join_year,
			followers, posts, profile_link, image_link, intro, last_post,
			last_post_at, seen_count, first_seen_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (identifier) DO UPDATE SET
			nickname = excluded.nickname,
			tags = excluded.tags,
			city = excluded.city,
			gender = excluded.gender,
			married = excluded.married,
			age = excluded.age,
			join_year = excluded.join_year,
			followers = excluded.followers,
			posts = excluded.posts,
			profile_link = excluded.profile_link,
			image_link = excluded.image_link,
			intro = excluded.intro,
			last_post = excluded.last_post,
			last_post_at = excluded.last_post_at,
			seen_count = seen_count + 1,
			last_seen_at = excluded.last_seen_at
	`, p.Identifier, p.Nickname, strings.Join(p.Tags, ","), p.City, p.Gender,
		p.Married, p.Age, p.JoinYear, p.Followers, p.Posts, p.ProfileLink,
		p.ImageLink, p.Intro, p.LastPost, p.LastPostAt, p.LastSeenAt, p.LastSeenAt)

	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// InsertCapture appends one capture event to the audit trail
func (r *Repository) InsertCapture(identifier string, capturedAt time.Time, followers, posts int) error {
	_, err := r.db.Exec(`
		INSERT INTO captures (identifier, captured_at, followers, posts)
		VALUES (?, ?, ?, ?)
	`, identifier, capturedAt, followers, posts)

	if err != nil {
		return fmt.Errorf("failed to insert capture: %w", err)
	}

	return nil
}

// GetProfile returns a profile by identifier, or nil when absent
func (r *Repository) GetProfile(identifier string) (*Profile, error) {
	row := r.db.QueryRow(`
		SELECT identifier, nickname, tags, city, gender, married, age, join_year,
		       followers, posts, profile_link, image_link, intro, last_post,
		       last_post_at, seen_count, first_seen_at, last_seen_at
		FROM profiles
		WHERE identifier = ?
	`, identifier)

	profile, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// GetProfiles returns the most recently seen profiles
func (r *Repository) GetProfiles(limit int) ([]Profile, error) {
	rows, err := r.db.Query(`
		SELECT identifier, nickname, tags, city, gender, married, age, join_year,
		       followers, posts, profile_link, image_link, intro, last_post,
		       last_post_at, seen_count, first_seen_at, last_seen_at
		FROM profiles
		ORDER BY last_seen_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profile rows: %w", err)
	}

	return profiles, nil
}

// GetProfileCount returns the total number of known profiles
func (r *Repository) GetProfileCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM profiles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get profile count: %w", err)
	}
	return count, nil
}

// GetCaptureCount returns the total number of capture events
func (r *Repository) GetCaptureCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM captures").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get capture count: %w", err)
	}
	return count, nil
}

// GetLastCapturedAt returns the timestamp of the most recent capture
func (r *Repository) GetLastCapturedAt() (*time.Time, error) {
	var capturedAt sql.NullTime
	err := r.db.QueryRow("SELECT MAX(captured_at) FROM captures").Scan(&capturedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get last capture time: %w", err)
	}
	if !capturedAt.Valid {
		return nil, nil
	}
	return &capturedAt.Time, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*Profile, error) {
	var p Profile
	var tags string
	var married sql.NullBool
	var age, joinYear sql.NullInt64
	var lastPostAt sql.NullTime

	err := row.Scan(
		&p.Identifier, &p.Nickname, &tags, &p.City, &p.Gender, &married,
		&age, &joinYear, &p.Followers, &p.Posts, &p.ProfileLink,
		&p.ImageLink, &p.Intro, &p.LastPost, &lastPostAt, &p.SeenCount,
		&p.FirstSeenAt, &p.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}

	if tags != "" {
		p.Tags = strings.Split(tags, ",")
	}
	if married.Valid {
		p.Married = &married.Bool
	}
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	if joinYear.Valid {
		v := int(joinYear.Int64)
		p.JoinYear = &v
	}
	if lastPostAt.Valid {
		p.LastPostAt = &lastPostAt.Time
	}

	return &p, nil
}
