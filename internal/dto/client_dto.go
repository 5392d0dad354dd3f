package dto

type CreateClientRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
	Company  string `json:"company,omitempty"`
}
