package domain

// SubjectType identifies the kind of principal a token was issued to.
type SubjectType string

const (
	SubjectTypeUser SubjectType = "USER"
)
