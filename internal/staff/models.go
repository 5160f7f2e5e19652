package staff

// Member is one row of the staff table.
type Member struct {
	ID        int64
	Number    int
	FirstName string
	LastName  string
	Phone     string
}

// Credential is the login record linked to a staff member. PasswordHash holds
// whatever the POS clients store there (historically a SHA-256 hex digest,
// sometimes plaintext).
type Credential struct {
	StaffID      int64
	Login        string
	PasswordHash string
	Salt         string
}

// View is the wire shape POS clients expect from /staff. Email and IsActive
// have no backing columns; they are carried for client compatibility.
type View struct {
	ID           int64   `json:"Id"`
	FirstName    string  `json:"FirstName"`
	LastName     string  `json:"LastName"`
	Phone        string  `json:"Phone"`
	Email        *string `json:"Email"`
	Login        string  `json:"Login"`
	PasswordHash string  `json:"PasswordHash"`
	IsActive     bool    `json:"IsActive"`
}

// CreateParams carries the fields required to create a staff member with
// credentials.
type CreateParams struct {
	FirstName    string `json:"FirstName"`
	LastName     string `json:"LastName"`
	Phone        string `json:"Phone"`
	Login        string `json:"Login"`
	PasswordHash string `json:"PasswordHash"`
}

// UpdateParams carries optional fields for a partial staff update.
type UpdateParams struct {
	FirstName    *string `json:"FirstName"`
	LastName     *string `json:"LastName"`
	Phone        *string `json:"Phone"`
	Login        *string `json:"Login"`
	PasswordHash *string `json:"PasswordHash"`
}

// SyncItem is one element of the replace-style staff sync payload.
type SyncItem struct {
	ID           *int64 `json:"Id"`
	FirstName    string `json:"FirstName"`
	LastName     string `json:"LastName"`
	Phone        string `json:"Phone"`
	Login        string `json:"Login"`
	PasswordHash string `json:"PasswordHash"`
}
