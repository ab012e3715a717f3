package user

// User is a transient read model reconstructed from query results. Password
// carries the stored credential only where verification needs it and is
// never rendered.
type User struct {
	ID        int    `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
	Admin     bool   `json:"admin"`
	Password  string `json:"-"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
