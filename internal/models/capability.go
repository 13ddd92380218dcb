package models

// Capability names a single gated operation of the core.
type Capability string

const (
	CapManageUsers       Capability = "manage_users"
	CapManageSettings    Capability = "manage_settings"
	CapRecordDeductions  Capability = "record_deductions"
	CapExportDeductions  Capability = "export_deductions"
	CapViewAlertQueue    Capability = "view_alert_queue"
	CapAcknowledgeAlerts Capability = "acknowledge_alerts"
	CapRaiseAlerts       Capability = "raise_alerts"
	CapViewOwnAlerts     Capability = "view_own_alerts"
	CapReportItems       Capability = "report_items"
	CapClaimItems        Capability = "claim_items"
)

// Actor identifies who is invoking an operation. A nil *Actor is a guest:
// no directory identity, self-reporting via free text.
type Actor struct {
	ID   string
	Role UserRole
}

// guestCapabilities is what an anonymous visitor may do.
var guestCapabilities = capSet(
	CapRaiseAlerts,
	CapReportItems,
	CapClaimItems,
)

var roleCapabilities = map[UserRole]map[Capability]struct{}{
	RoleStudent: capSet(
		CapRaiseAlerts,
		CapViewOwnAlerts,
		CapReportItems,
		CapClaimItems,
	),
	RoleStaff: capSet(
		CapViewAlertQueue,
		CapAcknowledgeAlerts,
		CapRaiseAlerts,
		CapViewOwnAlerts,
		CapReportItems,
		CapClaimItems,
	),
	RoleTeacher: capSet(
		CapRecordDeductions,
		CapExportDeductions,
		CapViewAlertQueue,
		CapAcknowledgeAlerts,
		CapRaiseAlerts,
		CapViewOwnAlerts,
		CapReportItems,
		CapClaimItems,
	),
	RoleAdmin: capSet(
		CapManageUsers,
		CapManageSettings,
		CapRecordDeductions,
		CapExportDeductions,
		CapViewAlertQueue,
		CapAcknowledgeAlerts,
		CapRaiseAlerts,
		CapViewOwnAlerts,
		CapReportItems,
		CapClaimItems,
	),
}

// Can reports whether the actor holds the capability. Safe on a nil
// receiver, which represents guest access.
func (a *Actor) Can(c Capability) bool {
	if a == nil {
		_, ok := guestCapabilities[c]
		return ok
	}
	caps, ok := roleCapabilities[a.Role]
	if !ok {
		return false
	}
	_, ok = caps[c]
	return ok
}

// Guest reports whether the actor has no directory identity.
func (a *Actor) Guest() bool {
	return a == nil || a.ID == ""
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}
