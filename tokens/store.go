package tokens

// Storage keys of the token pair. They are shared with earlier releases of the
// admin app so an existing session survives an upgrade.
const (
	AccessTokenKey  = "bafcc_access_token"
	RefreshTokenKey = "bafcc_refresh_token"
)

// Store keeps the token pair across process restarts.
//
// Save writes both values together and Clear removes both together. A reader
// never observes one key updated without the other. Loads report absent when
// the store cannot be read.
type Store interface {
	Save(access, refresh string) error
	LoadAccessToken() (string, bool)
	LoadRefreshToken() (string, bool)
	Clear()
}
