// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Class levels used by achievements.
const (
	ClassLevel10   = "10"
	ClassLevel12   = "12"
	ClassLevelBoth = "both"
)

// Achievement is a student accomplishment.
type Achievement struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	ClassLevel  string  `json:"class_level"`
	Year        int     `json:"year"`
	ImageURL    *string `json:"image_url"`
	Featured    bool    `json:"is_featured"`
}

// ClassLabel returns the badge text for the class level.
func (a Achievement) ClassLabel() string {
	if a.ClassLevel == ClassLevelBoth {
		return "Class 10 & 12"
	}
	return "Class " + a.ClassLevel
}

// ClassBadge returns the badge style modifier for the class level.
func (a Achievement) ClassBadge() string {
	switch a.ClassLevel {
	case ClassLevel10:
		return "badge-primary"
	case ClassLevel12:
		return "badge-secondary"
	case ClassLevelBoth:
		return "badge-both"
	default:
		return "badge-muted"
	}
}

// achievementIcons rotate across the cards.
var achievementIcons = []string{"trophy", "star", "award", "trending-up"}

// AchievementIcon returns the icon name for the card at index i.
func AchievementIcon(i int) string {
	if i < 0 {
		i = -i
	}
	return achievementIcons[i%len(achievementIcons)]
}
