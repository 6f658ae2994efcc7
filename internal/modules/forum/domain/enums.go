//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// ForumState is where a forum is in the snapshot lifecycle. Eviction removes the
// forum instead of moving it to another state.
// ENUM(unseen,baselined,steady)
type ForumState string
