package domain

type EmergencyContact struct {
	ID       string
	UserID   string
	Name     string
	Email    string
	Phone    string
	IsActive bool
}

// Address is where an alert to this contact is delivered: the email address
// if there is one, otherwise the phone number.
func (c EmergencyContact) Address() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Phone
}
