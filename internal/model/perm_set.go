package model

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"
)

// Permission names accepted in a PermSet. Admin is a superset capability.
const (
	PermRead  = "read"
	PermWrite = "write"
	PermAdmin = "admin"
)

// PermSet is a custom []string serializer for API key permissions, stored as
// a comma-joined string column.

type PermSet []string

// Valid reports whether every element is a known permission name.
func (p PermSet) Valid() bool {
	for _, v := range p {
		if v != PermRead && v != PermWrite && v != PermAdmin {
			return false
		}
	}

	return len(p) > 0
}

// Has reports whether the set grants perm. Admin implies everything.
func (p PermSet) Has(perm string) bool {
	return slices.Contains(p, PermAdmin) || slices.Contains(p, perm)
}

// Value implements the driver.Valuer interface.
// This defines how the set is stored in the database.
func (p PermSet) Value() (driver.Value, error) {
	if !p.Valid() {
		return "", fmt.Errorf("unsafe permission set, %v", []string(p))
	}

	return strings.Join(p, ","), nil
}

// Scan implements the sql.Scanner interface.
// This defines how the database value is converted back into go.
func (p *PermSet) Scan(value interface{}) error {
	if value == nil {
		*p = PermSet{}
		return nil
	}

	str, ok := value.(string)
	if !ok {
		b, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan PermSet, %v", value)
		}

		str = string(b)
	}

	if str == "" {
		*p = PermSet{}
	} else {
		*p = PermSet(strings.Split(str, ","))
	}

	return nil
}
