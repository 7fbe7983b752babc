package models

// All lists every persisted model in dependency order. Used for sqlite
// auto-migration in local runs and repository tests.
func All() []any {
	return []any{
		&Principal{},
		&VerificationCode{},
		&Organization{},
		&Membership{},
		&AccessRequest{},
		&Event{},
		&EventInteraction{},
		&EventComment{},
		&Notification{},
		&OutboxEvent{},
	}
}
