package domain

// Identity is the authenticated caller as known to the client and server.
type Identity struct {
	UserID ID
	Name   string
	Role   Role
}

// Room returns the per-user realtime room name.
func (i Identity) Room() string {
	return string(i.UserID)
}

// StaffRoom is joined by every account that may view all requests.
const StaffRoom = "admins"
