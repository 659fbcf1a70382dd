package audit

// Pattern constants.
const DefaultIncludePattern = "*"

// Organization role values reported on access rows. Members carry the
// role GitHub assigns them; collaborators without a membership get the
// OUTSIDE COLLABORATOR marker.
const (
	OrgRoleAdmin   = "ADMIN"
	OrgRoleMember  = "MEMBER"
	OrgRoleOutside = "OUTSIDE COLLABORATOR"
)

// Affiliation filter values for collaborator listing.
const (
	AffiliationAll     = "ALL"
	AffiliationDirect  = "DIRECT"
	AffiliationOutside = "OUTSIDE"
)

// Defaults applied when the corresponding Config fields are zero.
const (
	DefaultPermissionFilter = "ALL"
	DefaultAffiliation      = AffiliationAll
	DefaultRetryCount       = 5
	DefaultRetryBaseDelayMs = 2000
	DefaultMaxWorkers       = 1
)
