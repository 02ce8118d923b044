package engine

import (
	"fmt"

	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
)

// ExtractDepartmentInfo reads the custom budget entries a building declares.
//
// A building declares entries only when its purpose array is non-empty and
// every purpose is a custom department expense or income code; anything else
// yields no entries and no error. Once declared, the whole building is
// rejected with common.ErrMalformedData if any property is missing or
// mistyped, the parallel arrays disagree in length, the department tables do
// not cover exactly the departments in use, or a department is not listed.
func ExtractDepartmentInfo(holder service.PropertyHolder) ([]model.DepartmentInfo, error) {
	if holder == nil {
		return nil, nil
	}

	purposes, ok := uint32Array(holder, model.PropertyBudgetItemPurpose)
	if !ok || len(purposes) == 0 {
		return nil, nil
	}
	for _, purpose := range purposes {
		if model.ItemTypeForPurpose(purpose) == model.ItemTypeInvalid {
			return nil, nil
		}
	}

	departments, ok := uint32Array(holder, model.PropertyBudgetItemDepartment)
	if !ok {
		return nil, malformed("department property %s is missing or not a uint32 array", common.Hex(model.PropertyBudgetItemDepartment))
	}
	lines, ok := uint32Array(holder, model.PropertyBudgetItemLine)
	if !ok {
		return nil, malformed("line property %s is missing or not a uint32 array", common.Hex(model.PropertyBudgetItemLine))
	}
	costs, ok := sint64Array(holder, model.PropertyBudgetItemCost)
	if !ok {
		return nil, malformed("cost property %s is missing or not a sint64 array", common.Hex(model.PropertyBudgetItemCost))
	}
	groups, ok := budgetGroupTable(holder)
	if !ok {
		return nil, malformed("budget group property %s must hold [department, group] pairs", common.Hex(model.PropertyDepartmentBudgetGroup))
	}
	names, ok := nameKeyTable(holder)
	if !ok {
		return nil, malformed("name key property %s must hold [department, group, instance] triples", common.Hex(model.PropertyDepartmentNameKey))
	}

	count := len(purposes)
	if len(departments) != count || len(lines) != count || len(costs) != count {
		return nil, malformed("entry count mismatch: %d purposes, %d departments, %d lines, %d costs",
			count, len(departments), len(lines), len(costs))
	}

	distinct := make(map[uint32]struct{}, count)
	for _, id := range departments {
		distinct[id] = struct{}{}
	}
	if len(groups) != len(distinct) || len(names) != len(distinct) {
		return nil, malformed("building uses %d departments but declares %d budget groups and %d name keys",
			len(distinct), len(groups), len(names))
	}

	infos := make([]model.DepartmentInfo, 0, count)
	for i, purpose := range purposes {
		id := departments[i]
		group, hasGroup := groups[id]
		name, hasName := names[id]
		if !hasGroup || !hasName {
			return nil, malformed("department %s has no budget group or name key", common.Hex(id))
		}

		infos = append(infos, model.DepartmentInfo{
			Type:        model.ItemTypeForPurpose(purpose),
			Department:  model.DepartmentID(id),
			Line:        model.LineNumber(lines[i]),
			BudgetGroup: model.BudgetGroup(group),
			Cost:        costs[i],
			NameKey:     name,
		})
	}
	return infos, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrMalformedData, fmt.Sprintf(format, args...))
}

func uint32Array(holder service.PropertyHolder, id uint32) ([]uint32, bool) {
	value, ok := holder.Property(id)
	if !ok || value.Kind != model.KindUint32Array {
		return nil, false
	}
	return value.Uint32s, true
}

func sint64Array(holder service.PropertyHolder, id uint32) ([]int64, bool) {
	value, ok := holder.Property(id)
	if !ok || value.Kind != model.KindSint64Array {
		return nil, false
	}
	return value.Sint64s, true
}

// budgetGroupTable decodes the [department, group, ...] pair table. When a
// department is listed twice the first entry wins.
func budgetGroupTable(holder service.PropertyHolder) (map[uint32]uint32, bool) {
	values, ok := uint32Array(holder, model.PropertyDepartmentBudgetGroup)
	if !ok || len(values) < 2 || len(values)%2 != 0 {
		return nil, false
	}

	table := make(map[uint32]uint32, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		if _, exists := table[values[i]]; !exists {
			table[values[i]] = values[i+1]
		}
	}
	return table, true
}

// nameKeyTable decodes the [department, name group, name instance, ...]
// triple table. When a department is listed twice the first entry wins.
func nameKeyTable(holder service.PropertyHolder) (map[uint32]model.StringResourceKey, bool) {
	values, ok := uint32Array(holder, model.PropertyDepartmentNameKey)
	if !ok || len(values) < 3 || len(values)%3 != 0 {
		return nil, false
	}

	table := make(map[uint32]model.StringResourceKey, len(values)/3)
	for i := 0; i < len(values); i += 3 {
		if _, exists := table[values[i]]; !exists {
			table[values[i]] = model.StringResourceKey{GroupID: values[i+1], InstanceID: values[i+2]}
		}
	}
	return table, true
}
