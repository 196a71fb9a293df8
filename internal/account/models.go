package account

import "encoding/json"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleParent:
		return true
	}
	return false
}

// User is the account record. Credentials never leave the package in JSON.
type User struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	Role         Role            `json:"role"`
	FirstName    string          `json:"firstName"`
	YearGroup    *int            `json:"yearGroup"`
	ClassID      *int64          `json:"classId"`
	ParentID     *int64          `json:"parentId"`
	AvatarConfig json.RawMessage `json:"avatarConfig"`

	PasswordHash    string   `json:"-"`
	PicturePassword []string `json:"-"`
}

// NewUser is the input to Store.Create. Password is plaintext and hashed on
// the way in.
type NewUser struct {
	Username        string
	Role            Role
	FirstName       string
	Password        string
	PicturePassword []string
	YearGroup       *int
	ClassID         *int64
	ParentID        *int64
	AvatarConfig    json.RawMessage
}
