package models

const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 10000
)

type Article struct {
	ID            string  `db:"id" bson:"_id"`
	Title         string  `db:"title" bson:"title"`
	Description   string  `db:"description" bson:"description"`
	URL           string  `db:"url" bson:"url"`
	PublishedAt   *string `db:"published_at" bson:"published_at,omitempty"`
	CommentsCount int     `db:"comments_count" bson:"comments_count"`
	Rating        int     `db:"rating" bson:"rating"`
	CreatedAtUTC  string  `db:"created_at_utc" bson:"created_at_utc"`
}

type Stats struct {
	Count                int
	AvgDescriptionLength int
}

// Outcome is the result of fetching a single article.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSkipped
	OutcomeDuplicate
	OutcomeSaved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeSaved:
		return "saved"
	default:
		return "failed"
	}
}
