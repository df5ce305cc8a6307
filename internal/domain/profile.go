package domain

// UserProfile is the coaching context carried for a returning user. All
// fields are optional. The gateway validates and forwards the profile; it is
// interpolated into the system prompt, never interpreted.
type UserProfile struct {
	JobTitle           string `json:"jobTitle"`
	CurrentGoal        string `json:"currentGoal"`
	SkillsAssessed     bool   `json:"skillsAssessed"`
	LastSessionSummary string `json:"lastSessionSummary"`
}

// ProfileUpdate is a partial profile write. Nil fields are left untouched.
type ProfileUpdate struct {
	JobTitle           *string
	CurrentGoal        *string
	SkillsAssessed     *bool
	LastSessionSummary *string
}
