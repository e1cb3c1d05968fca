// Package rbac maps the platform's fixed roles onto permissions and guards
// HTTP routes with them.
package rbac

import "github.com/fleetline-erp/fleetline-erp/internal/shared"

// Permission names, declared once and referenced by route guards.
const (
	PermPaymentView   = "billing.payment.view"
	PermPaymentRecord = "billing.payment.record"
	PermPaymentUpdate = "billing.payment.update"

	PermInvoiceView   = "billing.invoice.view"
	PermInvoiceCreate = "billing.invoice.create"
	PermInvoiceSend   = "billing.invoice.send"
	PermInvoiceDelete = "billing.invoice.delete"

	PermDeliveryView   = "dispatch.delivery.view"
	PermDeliveryCreate = "dispatch.delivery.create"
	PermDeliveryEdit   = "dispatch.delivery.edit"
	PermDeliveryStatus = "dispatch.delivery.status"
	PermDeliveryDelete = "dispatch.delivery.delete"

	PermVehicleView   = "fleet.vehicle.view"
	PermVehicleStatus = "fleet.vehicle.status"
)

var managerPerms = []string{
	PermPaymentView, PermPaymentRecord, PermPaymentUpdate,
	PermInvoiceView, PermInvoiceCreate, PermInvoiceSend, PermInvoiceDelete,
	PermDeliveryView, PermDeliveryCreate, PermDeliveryEdit, PermDeliveryStatus, PermDeliveryDelete,
	PermVehicleView, PermVehicleStatus,
}

// rolePermissions is the static capability catalogue. Roles are a closed set,
// so the grant table is enumerated here rather than stored per user.
var rolePermissions = map[shared.Role][]string{
	shared.RoleSuperAdmin: managerPerms,
	shared.RoleAdmin:      managerPerms,
	shared.RoleManager:    managerPerms,
	shared.RoleDriver: {
		PermDeliveryView,
		PermDeliveryEdit,
		PermDeliveryStatus,
	},
}

// PermissionsFor returns the permissions granted to a role.
func PermissionsFor(role shared.Role) []string {
	return rolePermissions[role]
}

// HasPermission reports whether the role is granted the permission.
func HasPermission(role shared.Role, perm string) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
