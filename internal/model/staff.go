// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "strings"

// DefaultDirectorBio is shown when the director record has no bio.
const DefaultDirectorBio = "Welcome to Saraswati School, where we believe in nurturing every child's " +
	"potential through quality education, moral values, and holistic development. Our commitment " +
	"is to create an environment where students can thrive academically, socially, and personally."

// DirectorProfile is the staff record flagged as director.
type DirectorProfile struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Position       string  `json:"position"`
	Bio            *string `json:"bio"`
	PhotoURL       *string `json:"photo_url"`
	Qualifications *string `json:"qualifications"`
	IsDirector     bool    `json:"is_director"`
}

// BioText returns the bio, or DefaultDirectorBio when it is empty.
func (d DirectorProfile) BioText() string {
	if d.Bio == nil || strings.TrimSpace(*d.Bio) == "" {
		return DefaultDirectorBio
	}
	return *d.Bio
}
