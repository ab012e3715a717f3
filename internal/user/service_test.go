package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func TestRegisterHashesPasswordAndNormalizesNames(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	service := NewService(repo)

	created, err := service.Register("  jenny ", "test", "j@example.com", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "Jenny", created.FirstName)
	assert.Equal(t, "Test", created.LastName)
	assert.True(t, created.Active)
	assert.False(t, created.Admin)
	assert.NotEqual(t, "hunter2", created.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("hunter2")))
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	repo := NewInMemoryRepository([]User{{ID: 1, Email: "j@example.com"}})
	service := NewService(repo)

	_, err := service.Register("Jenny", "Test", "j@example.com", "hunter2")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthenticateHashedPassword(t *testing.T) {
	repo := NewInMemoryRepository([]User{
		{ID: 1, Email: "j@example.com", Password: mustHash(t, "hunter2")},
	})
	service := NewService(repo)

	u, err := service.Authenticate("j@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
}

// Rows that predate hashing store the raw password; signin must still work
// through the plaintext fallback.
func TestAuthenticateLegacyPlaintextPassword(t *testing.T) {
	repo := NewInMemoryRepository([]User{
		{ID: 1, Email: "old@example.com", Password: "letmein"},
	})
	service := NewService(repo)

	u, err := service.Authenticate("old@example.com", "letmein")
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
}

// A bcrypt mismatch must never fall through to the plaintext comparison:
// knowing the stored hash text is not a way in.
func TestAuthenticateMismatchDoesNotFallBack(t *testing.T) {
	hash := mustHash(t, "hunter2")
	repo := NewInMemoryRepository([]User{
		{ID: 1, Email: "j@example.com", Password: hash},
	})
	service := NewService(repo)

	_, err := service.Authenticate("j@example.com", hash)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// Wrong password and unknown email surface the same error, so responses
// cannot be used to enumerate accounts.
func TestAuthenticateFailuresIndistinguishable(t *testing.T) {
	repo := NewInMemoryRepository([]User{
		{ID: 1, Email: "j@example.com", Password: mustHash(t, "hunter2")},
	})
	service := NewService(repo)

	_, wrongPassword := service.Authenticate("j@example.com", "nope")
	_, unknownEmail := service.Authenticate("nobody@example.com", "nope")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword, unknownEmail)
}

func TestResetPasswordStoresHash(t *testing.T) {
	repo := NewInMemoryRepository([]User{{ID: 1, Email: "j@example.com", Password: "letmein"}})
	service := NewService(repo)

	require.NoError(t, service.ResetPassword(1, "newpass"))

	u, err := repo.GetByID(1)
	require.NoError(t, err)
	assert.NotEqual(t, "newpass", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("newpass")))
}

func TestGeneratePassword(t *testing.T) {
	service := NewService(NewInMemoryRepository(nil))

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		password := service.GeneratePassword()
		assert.Len(t, password, 10)
		for _, ch := range password {
			assert.True(t, strings.ContainsRune(passwordCharset, ch), "unexpected character %q", ch)
		}
		seen[password] = true
	}
	assert.Greater(t, len(seen), 1, "generated passwords should vary")
}

func TestUpdateNormalizesNames(t *testing.T) {
	repo := NewInMemoryRepository([]User{{ID: 1, FirstName: "Jenny", LastName: "Test", Email: "j@example.com"}})
	service := NewService(repo)

	err := service.Update(User{ID: 1, FirstName: " jen ", LastName: "tester", Email: "j@example.com", Active: true})
	require.NoError(t, err)

	u, err := repo.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Jen", u.FirstName)
	assert.Equal(t, "Tester", u.LastName)
	assert.True(t, u.Active)
}

func TestListOrdersByLastThenFirstName(t *testing.T) {
	repo := NewInMemoryRepository([]User{
		{ID: 1, FirstName: "Zara", LastName: "Brown"},
		{ID: 2, FirstName: "Amy", LastName: "Carter"},
		{ID: 3, FirstName: "Amy", LastName: "Brown"},
	})
	service := NewService(repo)

	users, err := service.List()
	require.NoError(t, err)

	ids := []int{users[0].ID, users[1].ID, users[2].ID}
	assert.Equal(t, []int{3, 1, 2}, ids)
}
