package audit

import (
	"fmt"
	"log/slog"
	"strings"
)

// applyDefaults fills zero-valued tunables with their defaults.
func (c *Config) applyDefaults() {
	if c.Permission == "" {
		c.Permission = DefaultPermissionFilter
	}
	if c.Affiliation == "" {
		c.Affiliation = DefaultAffiliation
	}
	if c.RetryCount <= 0 {
		c.RetryCount = DefaultRetryCount
	}
	if c.RetryBaseDelayMs <= 0 {
		c.RetryBaseDelayMs = DefaultRetryBaseDelayMs
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// validate checks required fields and enum values.
func (c *Config) validate() error {
	if c.Organization == "" {
		return fmt.Errorf("organization is required")
	}
	if _, _, err := ParsePermissionFilter(c.Permission); err != nil {
		return err
	}
	if _, err := NormalizeAffiliation(c.Affiliation); err != nil {
		return err
	}
	return nil
}

// NormalizeAffiliation validates an affiliation value and returns its
// canonical uppercase form. Empty means ALL.
func NormalizeAffiliation(s string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		v = AffiliationAll
	}
	switch v {
	case AffiliationAll, AffiliationDirect, AffiliationOutside:
		return v, nil
	}
	return "", fmt.Errorf("invalid affiliation %q: must be ALL, DIRECT, or OUTSIDE", s)
}
