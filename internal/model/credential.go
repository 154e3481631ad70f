package model

// CachedCredential is the vault's record of the last identity to sign in
// on this device. It is a cache, not a source of truth.
type CachedCredential struct {
	UserID      UserID `json:"user_id"`
	Email       string `json:"email"`
	FederatedID string `json:"federated_id,omitempty"`
}

// CachedCredential returns the vault record for the user
func (u *User) CachedCredential() CachedCredential {
	return CachedCredential{
		UserID:      u.ID,
		Email:       u.Email,
		FederatedID: u.FederatedID,
	}
}
