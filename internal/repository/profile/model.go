package profile

import (
	"strings"
	"time"

	"github.com/selfadvocacy/discovery/internal/domain/profile"
)

const tagSeparator = ","

// profileRow is the profiles table. Tag lists are stored comma-joined.
type profileRow struct {
	ID               string    `gorm:"primaryKey;size:64"`
	Username         string    `gorm:"size:64;not null"`
	Age              int       `gorm:"not null;default:0"`
	Region           string    `gorm:"size:64;index"`
	AvatarURL        string    `gorm:"size:512"`
	Gender           string    `gorm:"size:32"`
	GenderPreference string    `gorm:"size:32"`
	SubscriptionTier string    `gorm:"size:32;not null;default:free"`
	TopicTags        string    `gorm:"size:1024"`
	AnswerText       string    `gorm:"type:text"`
	SelectedTags     string    `gorm:"size:1024"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (profileRow) TableName() string { return "profiles" }

func fromDomain(p *profile.Profile) profileRow {
	return profileRow{
		ID:               p.ID,
		Username:         p.Username,
		Age:              p.Age,
		Region:           p.Region,
		AvatarURL:        p.AvatarURL,
		Gender:           p.Gender,
		GenderPreference: p.GenderPreference,
		SubscriptionTier: p.SubscriptionTier,
		TopicTags:        strings.Join(p.TopicTags, tagSeparator),
		AnswerText:       p.AnswerText,
		SelectedTags:     strings.Join(p.SelectedTags, tagSeparator),
	}
}

func (r *profileRow) toDomain() profile.Profile {
	return profile.Profile{
		ID:               r.ID,
		Username:         r.Username,
		Age:              r.Age,
		Region:           r.Region,
		AvatarURL:        r.AvatarURL,
		Gender:           r.Gender,
		GenderPreference: r.GenderPreference,
		SubscriptionTier: r.SubscriptionTier,
		TopicTags:        splitTags(r.TopicTags),
		AnswerText:       r.AnswerText,
		SelectedTags:     splitTags(r.SelectedTags),
	}
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(s, tagSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
