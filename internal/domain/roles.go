package domain

type Role string

const (
	RoleNone    Role = ""
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager
}

type Capability string

const (
	CapCloseDay         Capability = "close_day"
	CapSettleCredit     Capability = "settle_credit"
	CapRestock          Capability = "restock"
	CapManualIncome     Capability = "manual_income"
	CapViewReports      Capability = "view_reports"
	CapViewTransactions Capability = "view_transactions"
	CapOpenDrawer       Capability = "open_drawer"
)

// rolePolicy is the single source of truth for what an unlocked role may do.
var rolePolicy = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapCloseDay:         true,
		CapSettleCredit:     true,
		CapRestock:          true,
		CapManualIncome:     true,
		CapViewReports:      true,
		CapViewTransactions: true,
		CapOpenDrawer:       true,
	},
	RoleManager: {
		CapCloseDay:     true,
		CapSettleCredit: true,
		CapRestock:      true,
		CapViewReports:  true,
		CapOpenDrawer:   true,
	},
}

func (r Role) Can(c Capability) bool {
	return rolePolicy[r][c]
}

func (r Role) Capabilities() []Capability {
	out := make([]Capability, 0, len(rolePolicy[r]))
	for _, c := range []Capability{CapCloseDay, CapSettleCredit, CapRestock, CapManualIncome, CapViewReports, CapViewTransactions, CapOpenDrawer} {
		if rolePolicy[r][c] {
			out = append(out, c)
		}
	}
	return out
}
