package domain

// Page identifies a dashboard sub-view selected by the client.
type Page string

const (
	PageDashboard     Page = "dashboard"
	PagePrograms      Page = "programs"
	PageUsers         Page = "users"
	PageBeneficiaries Page = "beneficiaries"
	PageReports       Page = "reports"
	PageSettings      Page = "settings"
	PageBarangays     Page = "barangays"
	PageApplications  Page = "applications"
	PageMessages      Page = "messages"
	PageVisualEditor  Page = "visual-editor"
)

type PanelID string

const (
	PanelUserManagement      PanelID = "user-management"
	PanelProgramManagement   PanelID = "program-management"
	PanelBeneficiaryDatabase PanelID = "beneficiary-database"
	PanelBeneficiaryReview   PanelID = "beneficiary-review"
	PanelReports             PanelID = "reports"
	PanelSettings            PanelID = "settings"
	PanelBarangayManagement  PanelID = "barangay-management"
	PanelVisualEditor        PanelID = "visual-editor"
	PanelApplyPrograms       PanelID = "apply-programs"
	PanelMyApplications      PanelID = "my-applications"
	PanelMessages            PanelID = "messages"
)

type ActionID string

const (
	ActionManageUsers        ActionID = "manage-users"
	ActionUpdateRoles        ActionID = "update-roles"
	ActionManagePrograms     ActionID = "manage-programs"
	ActionFeaturePrograms    ActionID = "feature-programs"
	ActionViewBeneficiaries  ActionID = "view-beneficiaries"
	ActionReviewApplications ActionID = "review-applications"
	ActionExportReports      ActionID = "export-reports"
	ActionEditSettings       ActionID = "edit-settings"
	ActionManageBarangays    ActionID = "manage-barangays"
	ActionEditContent        ActionID = "edit-content"
	ActionApplyProgram       ActionID = "apply-program"
	ActionWithdrawOwn        ActionID = "withdraw-application"
	ActionTrackApplications  ActionID = "track-applications"
)

// DashboardView is the derived projection of (role, page). It is recomputed
// on every request and never stored.
type DashboardView struct {
	Role    Role       `json:"role"`
	Page    Page       `json:"page"`
	Panels  []PanelID  `json:"panels"`
	Actions []ActionID `json:"actions"`
}
