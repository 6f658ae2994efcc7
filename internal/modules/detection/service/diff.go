package service

import (
	"sort"

	"github.com/reshetovitsme/modwatch/internal/modules/detection/domain"
	postingDomain "github.com/reshetovitsme/modwatch/internal/modules/posting/domain"
	"github.com/samber/lo"
)

// Diff compares two snapshots of the same forum by posting id. Ids come back sorted so
// that downstream processing is deterministic.
func Diff(previous, current postingDomain.Snapshot) domain.Diff {
	prevIDs := lo.Keys(previous)
	curIDs := lo.Keys(current)

	removed, added := lo.Difference(prevIDs, curIDs)
	sort.Strings(added)
	sort.Strings(removed)

	return domain.Diff{Added: added, Removed: removed}
}
