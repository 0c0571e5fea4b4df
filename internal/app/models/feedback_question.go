package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/yigit/feedbackhub/internal/pkg/apperrors"
	"github.com/yigit/feedbackhub/internal/pkg/keycodec"
)

// FeedbackQuestionKind is the record type tag used when deriving external ids.
const FeedbackQuestionKind = "FeedbackQuestion"

// MaxPossibleRecipients as a target count means "every eligible recipient".
const MaxPossibleRecipients = -100

// DefaultTimestamp is returned by CreatedAt/UpdatedAt for records that were never timestamped.
var DefaultTimestamp = time.Unix(0, 0).UTC()

// InternalKey is the storage-assigned numeric key of a record. The zero value is unassigned.
type InternalKey struct {
	id       int64
	assigned bool
}

// AssignedKey returns an assigned InternalKey holding id.
func AssignedKey(id int64) InternalKey {
	return InternalKey{id: id, assigned: true}
}

// IsAssigned reports whether the storage layer has assigned the key.
func (k InternalKey) IsAssigned() bool {
	return k.assigned
}

// Value returns the key and whether it is assigned.
func (k InternalKey) Value() (int64, bool) {
	return k.id, k.assigned
}

func (k InternalKey) String() string {
	if !k.assigned {
		return "unassigned"
	}
	return strconv.FormatInt(k.id, 10)
}

// FeedbackQuestion represents a question of a feedback session within a course.
type FeedbackQuestion struct {
	key InternalKey
	// externalID is the id stored alongside the key, empty until persisted
	externalID string

	feedbackSessionName string
	courseID            string

	// questionText holds the serialized question details.
	questionText        string
	questionDescription string
	questionNumber      int
	questionType        FeedbackQuestionType

	giverType     FeedbackParticipantType
	recipientType FeedbackParticipantType

	// Consistency with the recipient type (e.g. OWN_TEAM implies 1) is checked by the service layer.
	numberOfEntitiesToGiveFeedbackTo int

	showResponsesTo     []FeedbackParticipantType
	showGiverNameTo     []FeedbackParticipantType
	showRecipientNameTo []FeedbackParticipantType

	createdAt time.Time
	updatedAt time.Time
}

// NewFeedbackQuestion creates a question without an internal key. Nil visibility lists are
// replaced by empty ones and both timestamps are set to the current time.
func NewFeedbackQuestion(
	feedbackSessionName, courseID string,
	questionText, questionDescription string,
	questionNumber int,
	questionType FeedbackQuestionType,
	giverType, recipientType FeedbackParticipantType,
	numberOfEntitiesToGiveFeedbackTo int,
	showResponsesTo, showGiverNameTo, showRecipientNameTo []FeedbackParticipantType,
) *FeedbackQuestion {
	q := &FeedbackQuestion{
		feedbackSessionName:              feedbackSessionName,
		courseID:                         courseID,
		questionText:                     questionText,
		questionDescription:              questionDescription,
		questionNumber:                   questionNumber,
		questionType:                     questionType,
		giverType:                        giverType,
		recipientType:                    recipientType,
		numberOfEntitiesToGiveFeedbackTo: numberOfEntitiesToGiveFeedbackTo,
		showResponsesTo:                  orEmpty(showResponsesTo),
		showGiverNameTo:                  orEmpty(showGiverNameTo),
		showRecipientNameTo:              orEmpty(showRecipientNameTo),
	}
	q.SetCreatedAt(time.Now())
	return q
}

// orEmpty copies list so the record never shares a backing array with its callers.
func orEmpty(list []FeedbackParticipantType) []FeedbackParticipantType {
	return append([]FeedbackParticipantType{}, list...)
}

// Key returns the internal key. It is never exposed outside the storage boundary; use ID.
func (q *FeedbackQuestion) Key() InternalKey {
	return q.key
}

// AssignKey records the key generated by the storage layer on first persist.
// A key can be assigned only once.
func (q *FeedbackQuestion) AssignKey(id int64) error {
	if q.key.assigned {
		return fmt.Errorf("%w: feedback question already has key %d", apperrors.ErrKeyAlreadyAssigned, q.key.id)
	}
	if id <= 0 {
		return fmt.Errorf("%w: internal key must be positive, got %d", apperrors.ErrValidationFailed, id)
	}
	q.key = AssignedKey(id)
	return nil
}

// SetStoredID records the external id the storage layer persisted with the key.
func (q *FeedbackQuestion) SetStoredID(externalID string) {
	q.externalID = externalID
}

// StoredID returns the persisted external id, if the storage layer recorded one.
func (q *FeedbackQuestion) StoredID() (string, bool) {
	return q.externalID, q.externalID != ""
}

// ID returns the external identifier of the question.
func (q *FeedbackQuestion) ID(enc keycodec.Encoder) (string, error) {
	return keycodec.DeriveExternalID(enc, FeedbackQuestionKind, q.key)
}

// CreatedAt returns the creation time, or DefaultTimestamp if it was never set.
func (q *FeedbackQuestion) CreatedAt() time.Time {
	if q.createdAt.IsZero() {
		return DefaultTimestamp
	}
	return q.createdAt
}

// UpdatedAt returns the last update time, or DefaultTimestamp if it was never set.
func (q *FeedbackQuestion) UpdatedAt() time.Time {
	if q.updatedAt.IsZero() {
		return DefaultTimestamp
	}
	return q.updatedAt
}

// SetCreatedAt sets the creation time and resets the last update time to match it.
func (q *FeedbackQuestion) SetCreatedAt(t time.Time) {
	q.createdAt = t
	q.setLastUpdate(t)
}

func (q *FeedbackQuestion) setLastUpdate(t time.Time) {
	// updatedAt never precedes createdAt
	if !q.createdAt.IsZero() && t.Before(q.createdAt) {
		t = q.createdAt
	}
	q.updatedAt = t
}

// Touch refreshes the last update time. The storage layer calls it right before every write,
// after all field changes of that write are applied.
func (q *FeedbackQuestion) Touch() {
	q.setLastUpdate(time.Now())
}

// FeedbackSessionName returns the owning session name.
func (q *FeedbackQuestion) FeedbackSessionName() string { return q.feedbackSessionName }

// SetFeedbackSessionName sets the owning session name.
func (q *FeedbackQuestion) SetFeedbackSessionName(name string) { q.feedbackSessionName = name }

// CourseID returns the owning course id.
func (q *FeedbackQuestion) CourseID() string { return q.courseID }

// SetCourseID sets the owning course id.
func (q *FeedbackQuestion) SetCourseID(courseID string) { q.courseID = courseID }

func (q *FeedbackQuestion) QuestionText() string { return q.questionText }

func (q *FeedbackQuestion) SetQuestionText(text string) { q.questionText = text }

func (q *FeedbackQuestion) QuestionDescription() string { return q.questionDescription }

func (q *FeedbackQuestion) SetQuestionDescription(description string) {
	q.questionDescription = description
}

// QuestionNumber is the position of the question within its session.
func (q *FeedbackQuestion) QuestionNumber() int { return q.questionNumber }

func (q *FeedbackQuestion) SetQuestionNumber(number int) { q.questionNumber = number }

func (q *FeedbackQuestion) QuestionType() FeedbackQuestionType { return q.questionType }

func (q *FeedbackQuestion) SetQuestionType(t FeedbackQuestionType) { q.questionType = t }

func (q *FeedbackQuestion) GiverType() FeedbackParticipantType { return q.giverType }

func (q *FeedbackQuestion) SetGiverType(t FeedbackParticipantType) { q.giverType = t }

func (q *FeedbackQuestion) RecipientType() FeedbackParticipantType { return q.recipientType }

func (q *FeedbackQuestion) SetRecipientType(t FeedbackParticipantType) { q.recipientType = t }

// NumberOfEntitiesToGiveFeedbackTo is how many recipients each giver must address.
func (q *FeedbackQuestion) NumberOfEntitiesToGiveFeedbackTo() int {
	return q.numberOfEntitiesToGiveFeedbackTo
}

func (q *FeedbackQuestion) SetNumberOfEntitiesToGiveFeedbackTo(n int) {
	q.numberOfEntitiesToGiveFeedbackTo = n
}

// ShowResponsesTo lists who can see the answers. Never nil; the result is a copy.
func (q *FeedbackQuestion) ShowResponsesTo() []FeedbackParticipantType {
	return orEmpty(q.showResponsesTo)
}

// SetShowResponsesTo replaces the list; nil stores an empty list.
func (q *FeedbackQuestion) SetShowResponsesTo(list []FeedbackParticipantType) {
	q.showResponsesTo = orEmpty(list)
}

// ShowGiverNameTo lists who can see the giver's identity. Never nil; the result is a copy.
func (q *FeedbackQuestion) ShowGiverNameTo() []FeedbackParticipantType {
	return orEmpty(q.showGiverNameTo)
}

// SetShowGiverNameTo replaces the list; nil stores an empty list.
func (q *FeedbackQuestion) SetShowGiverNameTo(list []FeedbackParticipantType) {
	q.showGiverNameTo = orEmpty(list)
}

// ShowRecipientNameTo lists who can see the recipient's identity. Never nil; the result is a copy.
func (q *FeedbackQuestion) ShowRecipientNameTo() []FeedbackParticipantType {
	return orEmpty(q.showRecipientNameTo)
}

// SetShowRecipientNameTo replaces the list; nil stores an empty list.
func (q *FeedbackQuestion) SetShowRecipientNameTo(list []FeedbackParticipantType) {
	q.showRecipientNameTo = orEmpty(list)
}

// FeedbackQuestionRecord is the persisted form of a FeedbackQuestion.
type FeedbackQuestionRecord struct {
	ID                               int64     `db:"id"`
	ExternalID                       string    `db:"external_id"`
	FeedbackSessionName              string    `db:"feedback_session_name"`
	CourseID                         string    `db:"course_id"`
	QuestionText                     string    `db:"question_text"`
	QuestionDescription              string    `db:"question_description"`
	QuestionNumber                   int       `db:"question_number"`
	QuestionType                     string    `db:"question_type"`
	GiverType                        string    `db:"giver_type"`
	RecipientType                    string    `db:"recipient_type"`
	NumberOfEntitiesToGiveFeedbackTo int       `db:"number_of_entities_to_give_feedback_to"`
	ShowResponsesTo                  []string  `db:"show_responses_to"`
	ShowGiverNameTo                  []string  `db:"show_giver_name_to"`
	ShowRecipientNameTo              []string  `db:"show_recipient_name_to"`
	CreatedAt                        time.Time `db:"created_at"`
	UpdatedAt                        time.Time `db:"updated_at"`
}

// Record returns the persisted form of q. ID is 0 and ExternalID empty while the key is unassigned.
func (q *FeedbackQuestion) Record() FeedbackQuestionRecord {
	return FeedbackQuestionRecord{
		ID:                               q.key.id,
		ExternalID:                       q.externalID,
		FeedbackSessionName:              q.feedbackSessionName,
		CourseID:                         q.courseID,
		QuestionText:                     q.questionText,
		QuestionDescription:              q.questionDescription,
		QuestionNumber:                   q.questionNumber,
		QuestionType:                     string(q.questionType),
		GiverType:                        string(q.giverType),
		RecipientType:                    string(q.recipientType),
		NumberOfEntitiesToGiveFeedbackTo: q.numberOfEntitiesToGiveFeedbackTo,
		ShowResponsesTo:                  participantStrings(q.showResponsesTo),
		ShowGiverNameTo:                  participantStrings(q.showGiverNameTo),
		ShowRecipientNameTo:              participantStrings(q.showRecipientNameTo),
		CreatedAt:                        q.createdAt,
		UpdatedAt:                        q.updatedAt,
	}
}

// RestoreFeedbackQuestion rebuilds a stored question. Timestamps are taken as stored.
func RestoreFeedbackQuestion(r FeedbackQuestionRecord) *FeedbackQuestion {
	q := &FeedbackQuestion{
		externalID:                       r.ExternalID,
		feedbackSessionName:              r.FeedbackSessionName,
		courseID:                         r.CourseID,
		questionText:                     r.QuestionText,
		questionDescription:              r.QuestionDescription,
		questionNumber:                   r.QuestionNumber,
		questionType:                     FeedbackQuestionType(r.QuestionType),
		giverType:                        FeedbackParticipantType(r.GiverType),
		recipientType:                    FeedbackParticipantType(r.RecipientType),
		numberOfEntitiesToGiveFeedbackTo: r.NumberOfEntitiesToGiveFeedbackTo,
		showResponsesTo:                  participantTypes(r.ShowResponsesTo),
		showGiverNameTo:                  participantTypes(r.ShowGiverNameTo),
		showRecipientNameTo:              participantTypes(r.ShowRecipientNameTo),
		createdAt:                        r.CreatedAt,
		updatedAt:                        r.UpdatedAt,
	}
	if r.ID > 0 {
		q.key = AssignedKey(r.ID)
	}
	return q
}

func participantStrings(list []FeedbackParticipantType) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, string(p))
	}
	return out
}

func participantTypes(list []string) []FeedbackParticipantType {
	out := make([]FeedbackParticipantType, 0, len(list))
	for _, s := range list {
		out = append(out, FeedbackParticipantType(s))
	}
	return out
}
