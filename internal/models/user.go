package models

// Operator is the signed-in user allowed to run cache and reload actions.
type Operator struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DisplayName returns the best label available for the operator.
func (o *Operator) DisplayName() string {
	if o == nil {
		return ""
	}
	if o.Name != "" {
		return o.Name
	}
	return o.Email
}
