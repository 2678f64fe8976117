package transport

type InvitationCreateRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
