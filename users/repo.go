package users

// Directory is the backend's user collection. The REST backend owns it; the fake
// implementation backs test servers and the demo mode.
type Directory interface {
	Upsert(user *User) error
	Delete(id string) error
	GetByEmail(email string) (*User, error)
	GetByID(id string) (*User, error)
	List() ([]*User, error)
}
