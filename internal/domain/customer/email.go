package customer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/customers/backend/internal/domain/shared"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// CodeInvalidEmail is the DomainError code for a malformed address
const CodeInvalidEmail = "INVALID_EMAIL"

// Email is a validated e-mail address. Two emails are equal when their
// values are equal.
type Email struct {
	value string
}

// NewEmail validates raw and returns it as an Email
func NewEmail(raw string) (Email, error) {
	if !emailPattern.MatchString(raw) {
		return Email{}, shared.NewDomainError(CodeInvalidEmail, fmt.Sprintf("Invalid email: %s", raw))
	}
	return Email{value: raw}, nil
}

// MustEmail is NewEmail for literals known to be valid
func MustEmail(raw string) Email {
	e, err := NewEmail(raw)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Email) String() string {
	return e.value
}

// IsZero reports whether the email was never set
func (e Email) IsZero() bool {
	return e.value == ""
}

// Equals compares by value
func (e Email) Equals(other Email) bool {
	return e.value == other.value
}

type emailJSON struct {
	Value string `json:"value"`
}

// MarshalJSON encodes the email as {"value": "..."}
func (e Email) MarshalJSON() ([]byte, error) {
	return json.Marshal(emailJSON{Value: e.value})
}

// UnmarshalJSON accepts either {"value": "..."} or a bare string, and
// validates the address.
func (e *Email) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		var obj emailJSON
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		raw = obj.Value
	}

	parsed, err := NewEmail(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// RehydrateEmail rebuilds an Email from a value that was validated before it
// was stored. It skips validation and must not be used on user input.
func RehydrateEmail(stored string) Email {
	return Email{value: stored}
}
