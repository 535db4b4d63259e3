package domain

// Identity is what the upstream auth gate supplies for each request:
// the Windows account name (development stub or X-Authenticated-User
// header), already stripped of the DOMAIN\ prefix.
type Identity struct {
	Username      string `json:"username"`
	Authenticated bool   `json:"isAuthenticated"`
	Domain        string `json:"domain"`
}
