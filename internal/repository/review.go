package repository

import (
	"backend/internal/moderation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// reviewUpdates builds the column set every moderation transition writes.
// reviewed_by and reviewed_at always land together with the status change.
func reviewUpdates(d moderation.Decision) map[string]interface{} {
	return map[string]interface{}{
		"status":       string(d.Status),
		"reviewed_by":  d.ReviewerID,
		"reviewed_at":  d.ReviewedAt,
		"review_notes": d.Notes,
	}
}

// countByStatus groups a moderatable table by review status within an
// optional community scope (nil = all communities).
func countByStatus(query *gorm.DB, communityColumn string, communityIDs []uuid.UUID) (map[moderation.Status]int64, error) {
	type row struct {
		Status string
		Total  int64
	}

	if communityIDs != nil {
		query = query.Where(communityColumn+" IN ?", communityIDs)
	}

	var rows []row
	if err := query.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[moderation.Status]int64, len(rows))
	for _, r := range rows {
		counts[moderation.Status(r.Status)] = r.Total
	}
	return counts, nil
}
