package types

type UserResponse struct {
	ID    uint   `json:"id"`
	Login string `json:"login"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ProjectResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	LogoID      *string `json:"logo_id,omitempty"`
}

type DocumentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID uint   `json:"project_id"`
}
