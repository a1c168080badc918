// Package auth holds account capabilities, password hashing and session tokens.
package auth

import (
	"fmt"
	"strings"
)

// Capabilities is a closed set of permissions granted to an account.
type Capabilities uint32

const (
	CapViewOrders Capabilities = 1 << iota
	CapManageOrders
	CapManageClients
	CapUseCalculator
	CapManageCalculators
	CapManageUsers
	CapViewAuditLog

	CapAll = CapViewOrders | CapManageOrders | CapManageClients | CapUseCalculator |
		CapManageCalculators | CapManageUsers | CapViewAuditLog
)

// ManagerCapabilities are granted to self-registered accounts.
const ManagerCapabilities = CapViewOrders | CapManageClients | CapUseCalculator

var capabilityNames = []struct {
	cap  Capabilities
	name string
}{
	{CapViewOrders, "view_orders"},
	{CapManageOrders, "manage_orders"},
	{CapManageClients, "manage_clients"},
	{CapUseCalculator, "use_calculator"},
	{CapManageCalculators, "manage_calculators"},
	{CapManageUsers, "manage_users"},
	{CapViewAuditLog, "view_audit_log"},
}

// Has reports whether every capability in want is granted.
func (c Capabilities) Has(want Capabilities) bool {
	return c&want == want
}

// Names lists the granted capabilities in declaration order.
func (c Capabilities) Names() []string {
	names := make([]string, 0, len(capabilityNames))
	for _, cn := range capabilityNames {
		if c.Has(cn.cap) {
			names = append(names, cn.name)
		}
	}
	return names
}

func (c Capabilities) String() string {
	if c == CapAll {
		return "all"
	}
	return strings.Join(c.Names(), ",")
}

// ParsePermissions converts permission strings of imported accounts.
// "all" grants every capability.
func ParsePermissions(perms []string) (Capabilities, error) {
	var caps Capabilities
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "all" {
			caps |= CapAll
			continue
		}
		found := false
		for _, cn := range capabilityNames {
			if cn.name == p {
				caps |= cn.cap
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown permission %q", p)
		}
	}
	return caps, nil
}
