package repositories

import (
	"github.com/yigit/feedbackhub/internal/db"
	"github.com/yigit/feedbackhub/internal/pkg/keycodec"
)

// Repositories holds all the repository instances
type Repositories struct {
	FeedbackQuestionRepository *FeedbackQuestionRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB, encoder keycodec.Encoder) *Repositories {
	return &Repositories{
		FeedbackQuestionRepository: NewFeedbackQuestionRepository(database, encoder),
	}
}
