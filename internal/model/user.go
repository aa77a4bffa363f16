package model

// User mirrors a row of the users table. Hash and Salt never leave the
// server; they carry json:"-" so a User can be rendered directly.
type User struct {
	Username  string `json:"username"`   // users.username (primary key)
	Name      string `json:"name"`       // users.name
	AvatarURL string `json:"avatar_url"` // users.avatar_url
	Admin     bool   `json:"admin"`      // users.admin
	Hash      string `json:"-"`          // users.hash, hex PBKDF2 digest
	Salt      string `json:"-"`          // users.salt, hex
}
