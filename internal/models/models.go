package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// OperationType selects which transform the solver applies.
type OperationType string

const (
	OpSolve   OperationType = "solve"
	OpLaplace OperationType = "laplace"
	OpFourier OperationType = "fourier"
)

// ErrUnsupportedOperation is returned for operation types outside solve/laplace/fourier.
var ErrUnsupportedOperation = errors.New("unsupported operation type")

// ParseOperation maps a wire value to an OperationType. An empty value means solve.
func ParseOperation(s string) (OperationType, error) {
	switch op := OperationType(strings.ToLower(strings.TrimSpace(s))); op {
	case "":
		return OpSolve, nil
	case OpSolve, OpLaplace, OpFourier:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperation, s)
	}
}

// Label is the capitalized name used in generated titles ("Laplace").
func (o OperationType) Label() string {
	if o == "" {
		return ""
	}
	return strings.ToUpper(string(o[:1])) + string(o[1:])
}

type User struct {
	ID           string     `gorm:"primaryKey;type:text" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null;type:text" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null;type:text" json:"email"`
	PasswordHash string     `gorm:"not null;type:text" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Profile is the public part of a user that clients keep next to the token.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Solution is either a single expression or a list of roots. The wire form
// keeps whichever shape the solver produced.
type Solution struct {
	Values []string
	Multi  bool
}

func SingleSolution(s string) Solution {
	return Solution{Values: []string{s}}
}

func ListSolution(values ...string) Solution {
	return Solution{Values: values, Multi: true}
}

func (s Solution) IsEmpty() bool {
	for _, v := range s.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Text joins the values with ", " for prompts and plain output.
func (s Solution) Text() string {
	return strings.Join(s.Values, ", ")
}

func (s Solution) MarshalJSON() ([]byte, error) {
	if s.Multi {
		if s.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.Values)
	}
	if len(s.Values) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(s.Values[0])
}

func (s *Solution) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = Solution{Values: list, Multi: true}
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("solution must be a string or a list of strings: %w", err)
	}
	*s = SingleSolution(single)
	return nil
}

// Value stores the solution as its JSON form.
func (s Solution) Value() (driver.Value, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *Solution) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = Solution{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into Solution", src)
	}
	if err := s.UnmarshalJSON(raw); err != nil {
		// rows written by hand may hold bare LaTeX
		*s = SingleSolution(string(raw))
	}
	return nil
}

type Calculation struct {
	ID            string        `gorm:"primaryKey;type:text" json:"id"`
	UserID        string        `gorm:"index;not null;type:text" json:"-"`
	Title         string        `gorm:"type:text" json:"title,omitempty"`
	OperationType OperationType `gorm:"type:text;not null" json:"operation_type"`
	LatexInput    string        `gorm:"type:text;not null" json:"latex_input"`
	Solution      Solution      `gorm:"type:text;not null" json:"solution"`
	AIExplanation string        `gorm:"type:text" json:"ai_explanation,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ExplanationCacheEntry holds explanation steps keyed by the prompt digest.
type ExplanationCacheEntry struct {
	CacheKey  string `gorm:"primaryKey;type:text"`
	Steps     string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (ExplanationCacheEntry) TableName() string {
	return "explanation_cache"
}
