//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// LifecycleStatus is the closed set of posting states the detector distinguishes.
// ENUM(active,deleted_by_self,unknown)
type LifecycleStatus string

// apiDeletedStatus is what the forum API reports for a posting its author deleted.
const apiDeletedStatus = "Deleted"

// LifecycleFromAPI maps the API's lifecycleStatus string onto LifecycleStatus.
func LifecycleFromAPI(raw string) LifecycleStatus {
	switch raw {
	case apiDeletedStatus:
		return LifecycleStatusDeletedBySelf
	case "", "Active", "Published":
		return LifecycleStatusActive
	default:
		return LifecycleStatusUnknown
	}
}

// IsSelfDeleted is true only for DeletedBySelf; Unknown counts as visible.
func (x LifecycleStatus) IsSelfDeleted() bool {
	return x == LifecycleStatusDeletedBySelf
}
