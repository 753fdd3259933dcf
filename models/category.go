package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Category is the closed set of skill categories. The zero value is not a
// valid category and never leaves this package through a parsed Skill.
type Category uint8

const (
	CategoryLanguage Category = iota + 1
	CategoryFramework
	CategoryTool
	CategoryDatabase
	CategoryOther
)

var ErrInvalidCategory = errors.New("invalid skill category")

var categoryNames = [...]string{
	CategoryLanguage:  "language",
	CategoryFramework: "framework",
	CategoryTool:      "tool",
	CategoryDatabase:  "database",
	CategoryOther:     "other",
}

// CategoryNames lists the wire names in declaration order.
func CategoryNames() []string {
	return append([]string(nil), categoryNames[1:]...)
}

func ParseCategory(s string) (Category, error) {
	for i := 1; i < len(categoryNames); i++ {
		if categoryNames[i] == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (c Category) Valid() bool {
	return c >= CategoryLanguage && c <= CategoryOther
}

func (c Category) String() string {
	if !c.Valid() {
		return ""
	}
	return categoryNames[c]
}

func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, c)
	}
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value stores the wire name so the column sorts alphabetically like the API does.
func (c Category) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, c)
	}
	return c.String(), nil
}

func (c *Category) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("scan category: unsupported type %T", src)
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
