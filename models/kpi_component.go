package models

import (
	"fmt"
)

// KPIVersion identifies the KPI component schema in effect. Bump when the
// component set or its stored codes change.
const KPIVersion = "0.3.0"

// KPIComponent identifies which measured dimension a delta applies to.
// The set is closed; the int16 codes are stable and stored in assigned_kpi
// rows, so they must never be reordered.
type KPIComponent int16

const (
	KPIComponentKill KPIComponent = iota
	KPIComponentDamage
	KPIComponentPriority
	KPIComponentRevive
	KPIComponentDeath
	KPIComponentFriendlyFire
	KPIComponentNitra
	KPIComponentSupply
	KPIComponentMinerals
)

var kpiComponentNames = map[KPIComponent]string{
	KPIComponentKill:         "kill",
	KPIComponentDamage:       "damage",
	KPIComponentPriority:     "priority",
	KPIComponentRevive:       "revive",
	KPIComponentDeath:        "death",
	KPIComponentFriendlyFire: "friendly_fire",
	KPIComponentNitra:        "nitra",
	KPIComponentSupply:       "supply",
	KPIComponentMinerals:     "minerals",
}

// String returns the stable wire name of the component.
func (c KPIComponent) String() string {
	if name, ok := kpiComponentNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int16(c))
}

// Valid reports whether c is a member of the closed component set.
func (c KPIComponent) Valid() bool {
	_, ok := kpiComponentNames[c]
	return ok
}

// Code returns the stored int16 code for the component.
func (c KPIComponent) Code() int16 { return int16(c) }

// KPIComponentFromCode converts a stored code back to the enum.
func KPIComponentFromCode(code int16) (KPIComponent, error) {
	c := KPIComponent(code)
	if !c.Valid() {
		return 0, fmt.Errorf("invalid KPI component code: %d", code)
	}
	return c, nil
}

// KPIComponentFromString converts a wire name to the enum.
func KPIComponentFromString(s string) (KPIComponent, error) {
	for c, name := range kpiComponentNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("invalid KPI component: %q", s)
}

// AllKPIComponents returns the closed set in code order.
func AllKPIComponents() []KPIComponent {
	return []KPIComponent{
		KPIComponentKill,
		KPIComponentDamage,
		KPIComponentPriority,
		KPIComponentRevive,
		KPIComponentDeath,
		KPIComponentFriendlyFire,
		KPIComponentNitra,
		KPIComponentSupply,
		KPIComponentMinerals,
	}
}
