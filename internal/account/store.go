package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrInvalidRole = errors.New("invalid role")
)

type Store interface {
	GetByID(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, nu NewUser) (User, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const userColumns = `id,username,role,first_name,password_hash,picture_password,year_group,class_id,parent_id,avatar_config`

func (s *SQLStore) GetByID(ctx context.Context, id int64) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (s *SQLStore) GetByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
}

func (s *SQLStore) Create(ctx context.Context, nu NewUser) (User, error) {
	if !nu.Role.Valid() {
		return User{}, fmt.Errorf("%w: %q", ErrInvalidRole, nu.Role)
	}
	var phash sql.NullString
	if nu.Password != "" {
		h, err := HashPassword(nu.Password)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		phash = sql.NullString{String: h, Valid: true}
	}
	var pic sql.NullString
	if len(nu.PicturePassword) > 0 {
		b, err := json.Marshal(nu.PicturePassword)
		if err != nil {
			return User{}, err
		}
		pic = sql.NullString{String: string(b), Valid: true}
	}
	avatar := nu.AvatarConfig
	if len(avatar) == 0 {
		avatar = json.RawMessage(`{}`)
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, role, first_name, password_hash, picture_password, year_group, class_id, parent_id, avatar_config, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING id`,
		nu.Username, string(nu.Role), nu.FirstName, phash, pic,
		nullInt(nu.YearGroup), nullInt64(nu.ClassID), nullInt64(nu.ParentID),
		string(avatar), time.Now().Unix(),
	).Scan(&id)
	if err != nil {
		return User{}, fmt.Errorf("insert user %q: %w", nu.Username, err)
	}
	return s.GetByID(ctx, id)
}

func scanUser(row *sql.Row) (User, error) {
	var (
		u                 User
		role, avatar      string
		phash, pic        sql.NullString
		year              sql.NullInt64
		classID, parentID sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &role, &u.FirstName, &phash, &pic, &year, &classID, &parentID, &avatar); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.Role = Role(role)
	u.PasswordHash = phash.String
	if pic.Valid && pic.String != "" {
		if err := json.Unmarshal([]byte(pic.String), &u.PicturePassword); err != nil {
			return User{}, fmt.Errorf("decode picture password for user %d: %w", u.ID, err)
		}
	}
	if year.Valid {
		y := int(year.Int64)
		u.YearGroup = &y
	}
	if classID.Valid {
		u.ClassID = &classID.Int64
	}
	if parentID.Valid {
		u.ParentID = &parentID.Int64
	}
	if avatar == "" {
		avatar = "{}"
	}
	u.AvatarConfig = json.RawMessage(avatar)
	return u, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
