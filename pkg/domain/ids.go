// Package domain defines typed identifiers shared by the scroll and license
// packages. Each id is "<kind>_faa_<unix seconds>_<8 hex>".
package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "scrollvault/pkg/domain-errors"
)

type (
	ScrollID  string
	ClaimID   string
	LicenseID string
)

const (
	scrollPrefix  = "scroll"
	claimPrefix   = "claim"
	licensePrefix = "license"
)

var idPattern = regexp.MustCompile(`^(scroll|claim|license)_faa_[0-9]{1,19}_[0-9a-f]{8}$`)

func NewScrollID(now time.Time) ScrollID   { return ScrollID(newID(scrollPrefix, now)) }
func NewClaimID(now time.Time) ClaimID     { return ClaimID(newID(claimPrefix, now)) }
func NewLicenseID(now time.Time) LicenseID { return LicenseID(newID(licensePrefix, now)) }

func ParseScrollID(s string) (ScrollID, error) {
	v, err := parseID(scrollPrefix, s)
	return ScrollID(v), err
}

func ParseClaimID(s string) (ClaimID, error) {
	v, err := parseID(claimPrefix, s)
	return ClaimID(v), err
}

func ParseLicenseID(s string) (LicenseID, error) {
	v, err := parseID(licensePrefix, s)
	return LicenseID(v), err
}

func (id ScrollID) String() string  { return string(id) }
func (id ClaimID) String() string   { return string(id) }
func (id LicenseID) String() string { return string(id) }

func newID(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_faa_%d_%s", prefix, now.Unix(), suffix)
}

func parseID(prefix, s string) (string, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, prefix+" id is required")
	}
	m := idPattern.FindStringSubmatch(s)
	if m == nil || m[1] != prefix {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+prefix+" id")
	}
	return s, nil
}
