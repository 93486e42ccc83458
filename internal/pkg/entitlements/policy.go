package entitlements

const (
	DefaultTrialDays     = 15
	DefaultLockAfterDays = 30
	DefaultPilotQuota    = 50
)

// Policy holds the numeric pilot constants. Every call site reads them from
// here so the trial length, lock threshold and pilot quota cannot drift apart.
type Policy struct {
	// TrialDays is the pilot window length used when provisioning a pilot.
	TrialDays int
	// LockAfterDays is how long after the pilot start an unconverted, ended pilot is locked.
	LockAfterDays int
	// PilotQuota replaces plan quotas while a pilot is active.
	PilotQuota int64
}

func DefaultPolicy() Policy {
	return Policy{
		TrialDays:     DefaultTrialDays,
		LockAfterDays: DefaultLockAfterDays,
		PilotQuota:    DefaultPilotQuota,
	}
}

// Normalize fills zero or negative values with defaults.
func (p Policy) Normalize() Policy {
	d := DefaultPolicy()
	if p.TrialDays <= 0 {
		p.TrialDays = d.TrialDays
	}
	if p.LockAfterDays <= 0 {
		p.LockAfterDays = d.LockAfterDays
	}
	if p.PilotQuota <= 0 {
		p.PilotQuota = d.PilotQuota
	}
	return p
}
