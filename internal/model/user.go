package model

// AuthenticatedUser is the identity produced by a successful credential check.
//
// It lives only for the duration of the authenticate request: its fields are
// copied into the token's claims and the struct is then discarded. Nothing
// about users is persisted.
type AuthenticatedUser struct {
	UserID    int64
	UserName  string
	FirstName string
	LastName  string
	City      string
}
