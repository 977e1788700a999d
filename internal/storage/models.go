package storage

import "time"

// Card is one physical access card. UID is unique and immutable once the
// card has been burned; the validity window and access flag are mutable.
type Card struct {
	ID             int64      `db:"id" json:"-"`
	UID            string     `db:"uid" json:"uid"`
	AuthoredAccess bool       `db:"authored_access" json:"authored_access"`
	ValidFrom      time.Time  `db:"valid_from" json:"valid_from"`
	ValidTo        *time.Time `db:"valid_to" json:"valid_to"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// CardPatch carries a partial card update. Nil fields are left unchanged;
// ClearValidTo removes the upper validity bound.
type CardPatch struct {
	AuthoredAccess *bool
	ValidFrom      *time.Time
	ValidTo        *time.Time
	ClearValidTo   bool
}

// User is an operator account for the management API.
type User struct {
	ID        int64     `db:"id" json:"-"`
	Username  string    `db:"username" json:"username"`
	Password  string    `db:"password" json:"-"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
