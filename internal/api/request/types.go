package request

// SetRoleRequest is the request body for changing an account's role
type SetRoleRequest struct {
	Role string `json:"role"`
}

// LoginRequest is the request body for opening a player session
type LoginRequest struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	Address string `json:"address"`
}
