package models

// Role is the global role assigned to a user account. Admins, curators
// and users are people logged in to the platform; the Visitor role is
// assigned to the shared API-key identity and may only view content.
type Role string

const (
	RoleAdmin   Role = "Admin"   // curator + can manage users and bypasses access checks
	RoleCurator Role = "Curator" // user + can approve signals and trends
	RoleUser    Role = "User"    // visitor + can submit signals
	RoleVisitor Role = "Visitor" // read-only access via API key
)

// IsAdmin reports whether the role bypasses all visibility and edit checks.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// IsStaff reports whether the role is Curator or Admin.
func (r Role) IsStaff() bool { return r == RoleAdmin || r == RoleCurator }

// Status is the review status of a signal or trend.
type Status string

const (
	StatusDraft    Status = "Draft"
	StatusNew      Status = "New"
	StatusApproved Status = "Approved"
	StatusArchived Status = "Archived"
)

// Steep lists the categories of the STEEP+V analysis methodology.
var Steep = []string{
	"Social", "Technological", "Economic", "Environmental", "Political", "Values",
}

// Signatures lists the organizational signature solutions and enablers
// used as thematic facets.
var Signatures = []string{
	"Poverty and Inequality",
	"Governance",
	"Resilience",
	"Environment",
	"Energy",
	"Gender Equality",
	"Strategic Innovation",
	"Digitalisation",
	"Development Financing",
}

// Goals lists the 17 UN Sustainable Development Goals.
var Goals = []string{
	"GOAL 1: No Poverty",
	"GOAL 2: Zero Hunger",
	"GOAL 3: Good Health and Well-being",
	"GOAL 4: Quality Education",
	"GOAL 5: Gender Equality",
	"GOAL 6: Clean Water and Sanitation",
	"GOAL 7: Affordable and Clean Energy",
	"GOAL 8: Decent Work and Economic Growth",
	"GOAL 9: Industry, Innovation and Infrastructure",
	"GOAL 10: Reduced Inequality",
	"GOAL 11: Sustainable Cities and Communities",
	"GOAL 12: Responsible Consumption and Production",
	"GOAL 13: Climate Action",
	"GOAL 14: Life Below Water",
	"GOAL 15: Life on Land",
	"GOAL 16: Peace and Justice Strong Institutions",
	"GOAL 17: Partnerships to achieve the Goal",
}

// Horizon is the impact horizon of a trend.
type Horizon string

const (
	HorizonShort  Horizon = "Horizon 1 (0-3 years)"
	HorizonMedium Horizon = "Horizon 2 (3-7 years)"
	HorizonLong   Horizon = "Horizon 3 (7-10 years)"
)

// Rating is the impact rating of a trend.
type Rating string

const (
	RatingLow      Rating = "1 – Low"
	RatingModerate Rating = "2 – Moderate"
	RatingHigh     Rating = "3 – Significant"
)

// ScoreMin and ScoreMax bound the novelty score of a signal
// (1 = non-novel, 5 = points to a consequential change in direction).
const (
	ScoreMin = 1
	ScoreMax = 5
)

// ValidStatus reports whether s is a recognized review status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusNew, StatusApproved, StatusArchived:
		return true
	}
	return false
}

// ValidHorizon reports whether h is a recognized impact horizon.
func ValidHorizon(h Horizon) bool {
	switch h {
	case HorizonShort, HorizonMedium, HorizonLong:
		return true
	}
	return false
}

// ValidRating reports whether r is a recognized impact rating.
func ValidRating(r Rating) bool {
	switch r {
	case RatingLow, RatingModerate, RatingHigh:
		return true
	}
	return false
}
