package bridge

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/switchboard/internal/models"
)

// buildDailyDigest summarizes ticket activity over the past 24 hours.
// Returns an empty string when there was no activity, which suppresses
// the digest message.
func buildDailyDigest(db *gorm.DB, now time.Time) (string, error) {
	since := now.Add(-24 * time.Hour)

	type statusCount struct {
		Status string
		Count  int64
	}
	var created []statusCount
	err := db.Model(&models.Ticket{}).
		Select("status, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("status").
		Order("status asc").
		Find(&created).Error
	if err != nil {
		return "", fmt.Errorf("bridge: digest ticket counts: %w", err)
	}

	var sessions int64
	err = db.Model(&models.ChatSession{}).
		Where("created_at >= ?", since).
		Count(&sessions).Error
	if err != nil {
		return "", fmt.Errorf("bridge: digest session count: %w", err)
	}

	if len(created) == 0 && sessions == 0 {
		return "", nil
	}

	var total int64
	var b strings.Builder
	b.WriteString("Daily support digest\n")
	for _, c := range created {
		total += c.Count
		fmt.Fprintf(&b, "- %s: %d\n", c.Status, c.Count)
	}
	fmt.Fprintf(&b, "Tickets created: %d\n", total)
	fmt.Fprintf(&b, "Conversations started: %d", sessions)
	return b.String(), nil
}
