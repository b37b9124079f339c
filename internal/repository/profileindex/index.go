package profileindex

import (
	"strconv"
	"strings"

	"github.com/selfadvocacy/discovery/internal/db"
	"github.com/selfadvocacy/discovery/internal/domain/profile"
	"github.com/selfadvocacy/discovery/internal/domain/search/query"
)

// Stored-only hash fields. They are returned with hits but not indexed.
const (
	fieldUsername  = "username"
	fieldAge       = "age"
	fieldAvatarURL = "avatarUrl"
)

// buildIndex describes the profile schema: tags for exact filters, a sortable
// numeric age and the three searchable text fields. Per-field weights are
// applied at query time, so every text field is indexed with weight 1.
func buildIndex(name, prefix string) (*db.IndexDefinition, error) {
	return db.NewIndex(name).
		Prefix(prefix).
		Tag(query.FieldID).
		Numeric(query.FieldAge).
		Tag(query.FieldRegion).
		Tag(query.FieldGender).
		Tag(query.FieldSubscriptionType).
		Text(query.FieldTopicTags).
		Text(query.FieldAnswerText).
		Text(query.FieldSelectedTags).
		Build()
}

// profileToHash flattens a profile into hash fields. Tag lists become
// space-separated text so each tag is a searchable token.
func profileToHash(p *profile.Profile) map[string]string {
	age := strconv.Itoa(p.Age)
	return map[string]string{
		query.FieldID:               p.ID,
		fieldUsername:               p.Username,
		fieldAge:                    age,
		query.FieldAge:              age,
		query.FieldRegion:           strings.TrimSpace(p.Region),
		fieldAvatarURL:              p.AvatarURL,
		query.FieldGender:           strings.TrimSpace(p.Gender),
		query.FieldSubscriptionType: string(p.Requester().Tier),
		query.FieldTopicTags:        strings.Join(p.TopicTags, " "),
		query.FieldAnswerText:       p.AnswerText,
		query.FieldSelectedTags:     strings.Join(p.SelectedTags, " "),
	}
}
