package collaboration

import "time"

// Config holds collaboration domain configuration.
type Config struct {
	// InvitationExpiry is how long an invitation is valid.
	InvitationExpiry time.Duration

	// ExternalCheckTimeout bounds the eligibility and directory calls made before a membership change.
	ExternalCheckTimeout time.Duration

	// SweepBatchSize caps how many expired invitations one sweep processes.
	SweepBatchSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		InvitationExpiry:     7 * 24 * time.Hour, // 7 days
		ExternalCheckTimeout: 5 * time.Second,
		SweepBatchSize:       500,
	}
}

// withDefaults returns a copy of c with zero values replaced by defaults.
func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.InvitationExpiry <= 0 {
		out.InvitationExpiry = def.InvitationExpiry
	}
	if out.ExternalCheckTimeout <= 0 {
		out.ExternalCheckTimeout = def.ExternalCheckTimeout
	}
	if out.SweepBatchSize <= 0 {
		out.SweepBatchSize = def.SweepBatchSize
	}
	return &out
}
