package commission

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"

	UnclassifiedGroupKey  = "unclassified"
	UnclassifiedGroupName = "Unclassified"
	titleGroupPrefix      = "title:"

	// ApprovalPercentage is the minimum performance percentage for approval at close time.
	ApprovalPercentage = 80
	// HighPerformerPercentage marks the dashboard's top band.
	HighPerformerPercentage = 90

	minYear = 2000
	maxYear = 9999
)

var Statuses = []string{StatusPending, StatusApproved, StatusRejected}
