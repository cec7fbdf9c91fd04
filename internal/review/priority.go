package review

import (
	"sort"

	"github.com/example/studyplan/pkg/models"
)

// statePriority weights items by learning stage. Recently failed items come
// back first; consolidated reviews can wait longest.
var statePriority = map[models.ItemState]float64{
	models.StateRelearning: 1000,
	models.StateLearning:   500,
	models.StateNew:        300,
	models.StateReview:     100,
}

const minStability = 0.1

// PriorityScore ranks an item for distribution. Higher is more urgent.
func PriorityScore(item models.ReviewableItem) float64 {
	stability := item.Stability
	if stability < minStability {
		stability = minStability
	}
	return statePriority[item.State] +
		float64(item.Lapses)*50 +
		item.Difficulty*10 +
		10/stability
}

// SortByPriority returns a copy of items ordered by score, highest first.
// Equal scores keep ascending id order.
func SortByPriority(items []models.ReviewableItem) []models.ReviewableItem {
	sorted := make([]models.ReviewableItem, len(items))
	copy(sorted, items)

	scores := make(map[int64]float64, len(sorted))
	for _, it := range sorted {
		scores[it.ID] = PriorityScore(it)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := scores[sorted[i].ID], scores[sorted[j].ID]
		if si != sj {
			return si > sj
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}
