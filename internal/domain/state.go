package domain

// LoginState is the current step of an in-progress login attempt
type LoginState string

const (
	StatePhone    LoginState = "phone"
	StateCode     LoginState = "code"
	StatePassword LoginState = "password"
)

// SetupStep is the current step of the rule setup wizard
type SetupStep string

const (
	StepAwaitingSource      SetupStep = "awaiting_source"
	StepAwaitingDestination SetupStep = "awaiting_destination"
)
