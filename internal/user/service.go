package user

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/matthew-r-clark/crm-donor-duplicates/internal/names"
	"golang.org/x/crypto/bcrypt"
)

const generatedPasswordLength = 10

const passwordCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789" +
	"!@#$%^&"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates an account after checking the email is not already
// taken. The check is advisory; the unique column backstops it under race.
func (s *Service) Register(firstName, lastName, email, password string) (User, error) {
	firstName, err := names.Normalize(firstName)
	if err != nil {
		return User{}, err
	}
	lastName, err = names.Normalize(lastName)
	if err != nil {
		return User{}, err
	}

	if _, err := s.repo.GetByEmail(email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	return s.repo.Create(User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Active:    true,
		Password:  string(hashed),
	})
}

// Authenticate verifies the credentials and returns the account. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(email, password string) (User, error) {
	u, err := s.repo.GetByEmail(email)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	if !verifyPassword(u.Password, password) {
		return User{}, ErrInvalidCredentials
	}

	return u, nil
}

// verifyPassword compares against the stored bcrypt hash. Rows that predate
// hashing hold the raw password; only a malformed-hash error falls back to
// direct comparison. A mismatch never does.
func verifyPassword(stored, given string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(given))
	if err == nil {
		return true
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false
	}
	return stored == given
}

func (s *Service) List() ([]User, error) {
	return s.repo.List()
}

func (s *Service) GetByID(id int) (User, error) {
	return s.repo.GetByID(id)
}

// Update rewrites the account's profile fields, normalizing names.
func (s *Service) Update(u User) error {
	firstName, err := names.Normalize(u.FirstName)
	if err != nil {
		return err
	}
	lastName, err := names.Normalize(u.LastName)
	if err != nil {
		return err
	}

	u.FirstName = firstName
	u.LastName = lastName
	return s.repo.Update(u)
}

// ResetPassword hashes and stores a new password.
func (s *Service) ResetPassword(id int, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(id, string(hashed))
}

func (s *Service) Delete(id int) error {
	return s.repo.Delete(id)
}

// GeneratePassword produces a random temporary password for admin resets.
func (s *Service) GeneratePassword() string {
	password := make([]byte, generatedPasswordLength)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range password {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		password[i] = passwordCharset[n.Int64()]
	}
	return string(password)
}
