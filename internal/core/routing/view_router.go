// Package routing maps (role, page) onto the set of dashboard panels and
// actions the presentation layer may render. It is pure: no I/O, no state,
// and total over every role/page combination.
package routing

import (
	"mswdportal/internal/core/domain"
)

// ComputeView returns the visible panel and action set for a role on a page.
// A page the role is not permitted to see collapses to that role's default
// dashboard view, so the mapping never produces an empty or broken view and a
// role change can never leave a restricted page rendered (callers recompute
// per request).
func ComputeView(role domain.Role, page domain.Page) domain.DashboardView {
	switch role {
	case domain.RoleSuperadmin:
		return superadminView(page)
	case domain.RoleAdmin:
		return adminView(page)
	case domain.RoleBeneficiary:
		return beneficiaryView(page)
	default:
		// Unresolved or corrupted role: least privilege wins.
		return beneficiaryView(domain.PageDashboard)
	}
}

// DefaultPage returns the landing page for a role.
func DefaultPage(role domain.Role) domain.Page {
	return domain.PageDashboard
}

func superadminView(page domain.Page) domain.DashboardView {
	v := domain.DashboardView{Role: domain.RoleSuperadmin, Page: page}
	switch page {
	case domain.PageUsers:
		v.Panels = []domain.PanelID{domain.PanelUserManagement}
		v.Actions = []domain.ActionID{domain.ActionManageUsers, domain.ActionUpdateRoles}
	case domain.PagePrograms:
		v.Panels = []domain.PanelID{domain.PanelProgramManagement}
		v.Actions = []domain.ActionID{domain.ActionManagePrograms, domain.ActionFeaturePrograms}
	case domain.PageBeneficiaries:
		v.Panels = []domain.PanelID{domain.PanelBeneficiaryDatabase}
		v.Actions = []domain.ActionID{domain.ActionViewBeneficiaries, domain.ActionReviewApplications}
	case domain.PageReports:
		v.Panels = []domain.PanelID{domain.PanelReports}
		v.Actions = []domain.ActionID{domain.ActionExportReports}
	case domain.PageSettings:
		v.Panels = []domain.PanelID{domain.PanelSettings}
		v.Actions = []domain.ActionID{domain.ActionEditSettings}
	case domain.PageBarangays:
		v.Panels = []domain.PanelID{domain.PanelBarangayManagement}
		v.Actions = []domain.ActionID{domain.ActionManageBarangays}
	case domain.PageVisualEditor:
		v.Panels = []domain.PanelID{domain.PanelVisualEditor}
		v.Actions = []domain.ActionID{domain.ActionEditContent}
	default:
		v.Page = domain.PageDashboard
		v.Panels = []domain.PanelID{
			domain.PanelUserManagement,
			domain.PanelProgramManagement,
			domain.PanelBeneficiaryDatabase,
			domain.PanelReports,
			domain.PanelSettings,
			domain.PanelBarangayManagement,
			domain.PanelVisualEditor,
		}
		v.Actions = []domain.ActionID{
			domain.ActionManageUsers,
			domain.ActionUpdateRoles,
			domain.ActionManagePrograms,
			domain.ActionFeaturePrograms,
			domain.ActionViewBeneficiaries,
			domain.ActionReviewApplications,
			domain.ActionExportReports,
			domain.ActionEditSettings,
			domain.ActionManageBarangays,
			domain.ActionEditContent,
		}
	}
	return v
}

func adminView(page domain.Page) domain.DashboardView {
	v := domain.DashboardView{Role: domain.RoleAdmin, Page: page}
	switch page {
	case domain.PagePrograms:
		v.Panels = []domain.PanelID{domain.PanelProgramManagement}
		v.Actions = []domain.ActionID{domain.ActionManagePrograms}
	case domain.PageBeneficiaries:
		v.Panels = []domain.PanelID{domain.PanelBeneficiaryReview}
		v.Actions = []domain.ActionID{domain.ActionReviewApplications}
	default:
		v.Page = domain.PageDashboard
		v.Panels = []domain.PanelID{
			domain.PanelProgramManagement,
			domain.PanelBeneficiaryReview,
		}
		v.Actions = []domain.ActionID{
			domain.ActionManagePrograms,
			domain.ActionReviewApplications,
		}
	}
	return v
}

func beneficiaryView(page domain.Page) domain.DashboardView {
	v := domain.DashboardView{Role: domain.RoleBeneficiary, Page: page}
	switch page {
	case domain.PagePrograms:
		v.Panels = []domain.PanelID{domain.PanelApplyPrograms}
		v.Actions = []domain.ActionID{domain.ActionApplyProgram}
	case domain.PageApplications:
		v.Panels = []domain.PanelID{domain.PanelMyApplications}
		v.Actions = []domain.ActionID{domain.ActionTrackApplications, domain.ActionWithdrawOwn}
	case domain.PageMessages:
		v.Panels = []domain.PanelID{domain.PanelMessages}
		v.Actions = []domain.ActionID{domain.ActionTrackApplications}
	default:
		v.Page = domain.PageDashboard
		v.Panels = []domain.PanelID{
			domain.PanelApplyPrograms,
			domain.PanelMyApplications,
		}
		v.Actions = []domain.ActionID{
			domain.ActionApplyProgram,
			domain.ActionTrackApplications,
			domain.ActionWithdrawOwn,
		}
	}
	return v
}
