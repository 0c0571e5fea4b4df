package models

// FeedbackQuestionType is the kind of answer a feedback question collects.
type FeedbackQuestionType string

// FeedbackQuestionType constants
const (
	QuestionTypeText               FeedbackQuestionType = "TEXT"
	QuestionTypeMCQ                FeedbackQuestionType = "MCQ"
	QuestionTypeMSQ                FeedbackQuestionType = "MSQ"
	QuestionTypeNumericalScale     FeedbackQuestionType = "NUMSCALE"
	QuestionTypeConstSum           FeedbackQuestionType = "CONSTSUM"
	QuestionTypeConstSumOptions    FeedbackQuestionType = "CONSTSUM_OPTIONS"
	QuestionTypeConstSumRecipients FeedbackQuestionType = "CONSTSUM_RECIPIENTS"
	QuestionTypeContribution       FeedbackQuestionType = "CONTRIB"
	QuestionTypeRubric             FeedbackQuestionType = "RUBRIC"
	QuestionTypeRankOptions        FeedbackQuestionType = "RANK_OPTIONS"
	QuestionTypeRankRecipients     FeedbackQuestionType = "RANK_RECIPIENTS"
)

// IsValid reports whether t is a known question type.
func (t FeedbackQuestionType) IsValid() bool {
	switch t {
	case QuestionTypeText, QuestionTypeMCQ, QuestionTypeMSQ, QuestionTypeNumericalScale,
		QuestionTypeConstSum, QuestionTypeConstSumOptions, QuestionTypeConstSumRecipients,
		QuestionTypeContribution, QuestionTypeRubric, QuestionTypeRankOptions, QuestionTypeRankRecipients:
		return true
	default:
		return false
	}
}

// FeedbackParticipantType is a class of session participant. It is used both for who gives and
// receives feedback and for who may see responses and names.
type FeedbackParticipantType string

// FeedbackParticipantType constants
const (
	ParticipantSelf                        FeedbackParticipantType = "SELF"
	ParticipantStudents                    FeedbackParticipantType = "STUDENTS"
	ParticipantStudentsInSameSection       FeedbackParticipantType = "STUDENTS_IN_SAME_SECTION"
	ParticipantStudentsExcludingSelf       FeedbackParticipantType = "STUDENTS_EXCLUDING_SELF"
	ParticipantInstructors                 FeedbackParticipantType = "INSTRUCTORS"
	ParticipantTeams                       FeedbackParticipantType = "TEAMS"
	ParticipantTeamsInSameSection          FeedbackParticipantType = "TEAMS_IN_SAME_SECTION"
	ParticipantTeamsExcludingSelf          FeedbackParticipantType = "TEAMS_EXCLUDING_SELF"
	ParticipantOwnTeam                     FeedbackParticipantType = "OWN_TEAM"
	ParticipantOwnTeamMembers              FeedbackParticipantType = "OWN_TEAM_MEMBERS"
	ParticipantOwnTeamMembersIncludingSelf FeedbackParticipantType = "OWN_TEAM_MEMBERS_INCLUDING_SELF"
	ParticipantNone                        FeedbackParticipantType = "NONE"
	ParticipantReceiver                    FeedbackParticipantType = "RECEIVER"
	ParticipantReceiverTeamMembers         FeedbackParticipantType = "RECEIVER_TEAM_MEMBERS"
	ParticipantGiver                       FeedbackParticipantType = "GIVER"
)

// IsValid reports whether p is a known participant type.
func (p FeedbackParticipantType) IsValid() bool {
	switch p {
	case ParticipantSelf, ParticipantStudents, ParticipantStudentsInSameSection, ParticipantStudentsExcludingSelf,
		ParticipantInstructors, ParticipantTeams, ParticipantTeamsInSameSection, ParticipantTeamsExcludingSelf,
		ParticipantOwnTeam, ParticipantOwnTeamMembers, ParticipantOwnTeamMembersIncludingSelf,
		ParticipantNone, ParticipantReceiver, ParticipantReceiverTeamMembers, ParticipantGiver:
		return true
	default:
		return false
	}
}

// IsValidGiver reports whether p may be used as a question's giver type.
func (p FeedbackParticipantType) IsValidGiver() bool {
	switch p {
	case ParticipantSelf, ParticipantStudents, ParticipantInstructors, ParticipantTeams:
		return true
	default:
		return false
	}
}

// IsValidRecipient reports whether p may be used as a question's recipient type.
func (p FeedbackParticipantType) IsValidRecipient() bool {
	switch p {
	case ParticipantReceiver, ParticipantGiver:
		return false
	default:
		return p.IsValid()
	}
}

// IsValidVisibility reports whether p may appear in a visibility list.
func (p FeedbackParticipantType) IsValidVisibility() bool {
	switch p {
	case ParticipantReceiver, ParticipantOwnTeamMembers, ParticipantReceiverTeamMembers,
		ParticipantStudents, ParticipantInstructors, ParticipantGiver:
		return true
	default:
		return false
	}
}

// IsSingleTarget reports whether a recipient of this type is always exactly one entity.
func (p FeedbackParticipantType) IsSingleTarget() bool {
	switch p {
	case ParticipantSelf, ParticipantNone, ParticipantOwnTeam:
		return true
	default:
		return false
	}
}
