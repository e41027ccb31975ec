// Package topic identifies a forum discussion thread by its three numeric
// coordinates: category, subcategory and thread.
package topic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separator joins the coordinates in the string form of an ID.
const Separator = "#"

// ErrUnresolved is returned when an identifier lacks one of its coordinates.
var ErrUnresolved = errors.New("cannot identify topic")

// ID is a resolved topic identifier.
type ID struct {
	Cat    int
	Subcat int
	Post   int
}

// String renders the identifier as the service expects it, e.g. "12#34#567".
func (id ID) String() string {
	return strconv.Itoa(id.Cat) + Separator + strconv.Itoa(id.Subcat) + Separator + strconv.Itoa(id.Post)
}

// Parse resolves an identifier of the form "cat#subcat#post".
func Parse(s string) (ID, error) {
	parts := strings.Split(strings.TrimSpace(s), Separator)
	if len(parts) != 3 {
		return ID{}, fmt.Errorf("%w: %q needs three coordinates", ErrUnresolved, s)
	}
	return FromParts(parts[0], parts[1], parts[2])
}

// FromParts resolves an identifier from its three coordinates as read from
// a host document. Every coordinate is required and must be a non-negative
// integer.
func FromParts(cat, subcat, post string) (ID, error) {
	var id ID
	fields := []struct {
		name string
		raw  string
		dst  *int
	}{
		{"cat", cat, &id.Cat},
		{"subcat", subcat, &id.Subcat},
		{"post", post, &id.Post},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			return ID{}, fmt.Errorf("%w: missing %s", ErrUnresolved, f.name)
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return ID{}, fmt.Errorf("%w: %s %q is not a number", ErrUnresolved, f.name, raw)
		}
		*f.dst = n
	}
	return id, nil
}
