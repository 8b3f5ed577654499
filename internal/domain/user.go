package domain

import (
	"crypto/hmac"
	"crypto/rand"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/scrypt"
)

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing username.
	ErrUserAlreadyExists = fmt.Errorf("user %w", ErrAlreadyExists)
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrInvalidCredentials is returned when the username/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	PasswordSaltSize = 64

	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

//nolint:gochecknoglobals
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Username identifies a user. It is immutable once the user is created.
type Username string

// String returns the string representation of the Username.
func (u Username) String() string {
	return string(u)
}

// Validate reports whether the username matches the allowed pattern.
func (u Username) Validate() error {
	if !usernamePattern.MatchString(string(u)) {
		return validationError("username %q must match %s", string(u), usernamePattern)
	}

	return nil
}

// User represents a registered member of the site.
// The profile bio is stored alongside the user record but is not part of it.
type User struct {
	Username            Username `yaml:"username"`
	DisplayName         string   `yaml:"display_name"`
	PasswordSalt        HexBytes `yaml:"password_salt"`
	EncryptedPassword   HexBytes `yaml:"encrypted_password"`
	NewPasswordRequired bool     `yaml:"new_password_required"`
	ImageFilename       *string  `yaml:"image_filename"`
	ImageThumbnail      *string  `yaml:"image_thumbnail"`
}

// NewUser creates a user with a freshly generated salt and the given initial password.
// The user must change the password on first login.
func NewUser(username Username, displayName, password string) (*User, error) {
	if password == "" {
		return nil, validationError("password must not be blank")
	}

	salt := make([]byte, PasswordSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	encrypted, err := encryptPassword(password, salt)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:            username,
		DisplayName:         displayName,
		PasswordSalt:        salt,
		EncryptedPassword:   encrypted,
		NewPasswordRequired: true,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Identity returns the username as the record key.
func (u *User) Identity() string {
	return string(u.Username)
}

// Validate checks the user's identity and required fields.
func (u *User) Validate() error {
	if err := u.Username.Validate(); err != nil {
		return err
	}

	if u.DisplayName == "" {
		return validationError("display name must not be empty")
	}

	if len(u.PasswordSalt) == 0 || len(u.EncryptedPassword) == 0 {
		return validationError("user %q has no credentials", u.Username)
	}

	return nil
}

// CheckPassword reports whether password matches the stored credential.
func (u *User) CheckPassword(password string) bool {
	encrypted, err := encryptPassword(password, u.PasswordSalt)
	if err != nil {
		return false
	}

	return hmac.Equal(encrypted, u.EncryptedPassword)
}

// UpdatePassword replaces the credential after verifying the current password.
func (u *User) UpdatePassword(currentPassword, newPassword string) error {
	if !u.CheckPassword(currentPassword) {
		return ErrInvalidCredentials
	}

	return u.ForceUpdatePassword(newPassword)
}

// ForceUpdatePassword replaces the credential without verification.
// The salt is kept.
func (u *User) ForceUpdatePassword(newPassword string) error {
	if newPassword == "" {
		return validationError("password must not be blank")
	}

	encrypted, err := encryptPassword(newPassword, u.PasswordSalt)
	if err != nil {
		return err
	}

	u.EncryptedPassword = encrypted

	return nil
}

// Clone returns a copy of the user that shares no mutable state with u.
func (u *User) Clone() *User {
	clone := *u
	clone.PasswordSalt = append(HexBytes(nil), u.PasswordSalt...)
	clone.EncryptedPassword = append(HexBytes(nil), u.EncryptedPassword...)
	clone.ImageFilename = cloneString(u.ImageFilename)
	clone.ImageThumbnail = cloneString(u.ImageThumbnail)

	return &clone
}

// String never includes credentials.
func (u *User) String() string {
	return fmt.Sprintf("User{username=%s display_name=%q new_password_required=%t}",
		u.Username, u.DisplayName, u.NewPasswordRequired)
}

func encryptPassword(password string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt: %w", err)
	}

	return key, nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s

	return &v
}
