//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// PersistResult tells whether an event was newly stored or already known.
// ENUM(stored,duplicate)
type PersistResult string
