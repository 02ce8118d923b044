package scenario

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/hostsim"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/shopspring/decimal"
)

// Rational converts a decimal literal such as "0.005" into the exact
// numerator and denominator pair in lowest terms.
func Rational(value string) (int64, int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, 0, fmt.Errorf("factor %q: %w", value, err)
	}

	r := d.Rat()
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return 0, 0, fmt.Errorf("factor %q does not fit a 64-bit fraction", value)
	}
	num := r.Num().Int64()
	if num < math.MinInt32 || num > math.MaxInt32 {
		return 0, 0, fmt.Errorf("factor %q numerator %d is out of range", value, num)
	}
	return num, r.Denom().Int64(), nil
}

func direct(value string) (float32, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("factor %q: %w", value, err)
	}
	return float32(d.InexactFloat64()), nil
}

// Compile builds the host building for every building definition using the
// given factor encoding.
func (s *Scenario) Compile(encoding algorithm.FactorEncoding) (map[string]*hostsim.Building, error) {
	names := make([]string, 0, len(s.Buildings))
	for name := range s.Buildings {
		names = append(names, name)
	}
	sort.Strings(names)

	buildings := make(map[string]*hostsim.Building, len(names))
	for _, name := range names {
		b, err := s.compileBuilding(s.Buildings[name], encoding)
		if err != nil {
			return nil, fmt.Errorf("%w: scenario: building %q: %w", common.ErrInvalidConfig, name, err)
		}
		buildings[name] = b
	}
	return buildings, nil
}

// compiler accumulates the exemplar properties of one building.
type compiler struct {
	props     hostsim.Properties
	tables    map[uint32][]int64
	tableRows map[uint32]map[uint32]bool
	lineTypes map[uint32]algorithm.Type
	encoding  algorithm.FactorEncoding
	lineOrder []uint32
}

func (s *Scenario) compileBuilding(b Building, encoding algorithm.FactorEncoding) (*hostsim.Building, error) {
	c := &compiler{
		props:     make(hostsim.Properties),
		tables:    make(map[uint32][]int64),
		tableRows: make(map[uint32]map[uint32]bool),
		lineTypes: make(map[uint32]algorithm.Type),
		encoding:  encoding,
	}

	purposes := make([]uint32, 0, len(b.Entries))
	depts := make([]uint32, 0, len(b.Entries))
	lines := make([]uint32, 0, len(b.Entries))
	costs := make([]int64, 0, len(b.Entries))
	used := make(map[uint32]bool)
	var deptOrder []uint32

	for i, e := range b.Entries {
		purpose, err := e.itemPurpose()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		purposes = append(purposes, purpose)
		depts = append(depts, e.Department)
		lines = append(lines, e.Line)
		costs = append(costs, e.Cost)
		if !used[e.Department] {
			used[e.Department] = true
			deptOrder = append(deptOrder, e.Department)
		}

		if err := c.addAlgorithm(e, purpose == model.PurposeIncome); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	c.props[model.PropertyBudgetItemPurpose] = model.Uint32Array(purposes...)
	c.props[model.PropertyBudgetItemDepartment] = model.Uint32Array(depts...)
	c.props[model.PropertyBudgetItemLine] = model.Uint32Array(lines...)
	c.props[model.PropertyBudgetItemCost] = model.Sint64Array(costs...)

	groups := make([]uint32, 0, 2*len(deptOrder))
	nameKeys := make([]uint32, 0, 3*len(deptOrder))
	for _, id := range deptOrder {
		d, ok := s.department(id)
		if !ok {
			return nil, fmt.Errorf("undeclared department %s", common.Hex(id))
		}
		group, _ := model.ParseBudgetGroup(d.Group)
		groups = append(groups, id, uint32(group))
		nameKeys = append(nameKeys, id, d.NameKey.Group, d.NameKey.Instance)
	}
	c.props[model.PropertyDepartmentBudgetGroup] = model.Uint32Array(groups...)
	c.props[model.PropertyDepartmentNameKey] = model.Uint32Array(nameKeys...)

	if len(c.lineOrder) > 0 {
		pairs := make([]uint32, 0, 2*len(c.lineOrder))
		for _, line := range c.lineOrder {
			pairs = append(pairs, line, uint32(c.lineTypes[line]))
		}
		c.props[model.PropertyLineItemAlgorithm] = model.Uint32Array(pairs...)
	}
	for id, values := range c.tables {
		c.props[id] = model.Sint64Array(values...)
	}

	return &hostsim.Building{Type: b.Type, Properties: c.props}, nil
}

func (s *Scenario) department(id uint32) (Department, bool) {
	for _, d := range s.Departments {
		if d.ID == id {
			return d, true
		}
	}
	return Department{}, false
}

func (c *compiler) addAlgorithm(e Entry, isIncome bool) error {
	t, err := e.algorithmType()
	if err != nil {
		return err
	}
	if t == algorithm.Fixed {
		return nil
	}

	if prev, seen := c.lineTypes[e.Line]; seen {
		if prev != t {
			return fmt.Errorf("line %s is assigned both %s and %s", common.Hex(e.Line), prev, t)
		}
	} else {
		c.lineTypes[e.Line] = t
		c.lineOrder = append(c.lineOrder, e.Line)
	}

	if c.encoding == algorithm.EncodingDirect {
		return c.addDirect(e, t, isIncome)
	}
	return c.addRational(e, t)
}

func (c *compiler) addRational(e Entry, t algorithm.Type) error {
	var (
		id  uint32
		row []int64
	)

	switch t {
	case algorithm.ResidentialTotalPopulation:
		if e.Factor == "" {
			return fmt.Errorf("%s needs a factor", t)
		}
		num, den, err := Rational(e.Factor)
		if err != nil {
			return err
		}
		id, row = algorithm.PropertyResidentialTotalPopulationTable, []int64{num, den}

	case algorithm.ResidentialWealthGroupPopulation:
		if len(e.Factors) != 3 {
			return fmt.Errorf("%s needs three factors, got %d", t, len(e.Factors))
		}
		for _, f := range e.Factors {
			num, den, err := Rational(f)
			if err != nil {
				return err
			}
			row = append(row, num, den)
		}
		id = algorithm.PropertyResidentialWealthGroupPopulationTable

	case algorithm.Tourism:
		if e.Tourism == nil {
			return fmt.Errorf("%s needs tourism factors", t)
		}
		num, den, err := Rational(e.Tourism.Factor)
		if err != nil {
			return err
		}
		id, row = algorithm.PropertyTourismTable, []int64{num, den, e.Tourism.Geopolitics}
	}

	if c.tableRows[id] == nil {
		c.tableRows[id] = make(map[uint32]bool)
	}
	if c.tableRows[id][e.Line] {
		return nil
	}
	c.tableRows[id][e.Line] = true
	c.tables[id] = append(append(c.tables[id], int64(e.Line)), row...)
	return nil
}

func (c *compiler) addDirect(e Entry, t algorithm.Type, isIncome bool) error {
	pick := func(expense, income uint32) uint32 {
		if isIncome {
			return income
		}
		return expense
	}

	var (
		id    uint32
		value model.PropertyValue
	)

	switch t {
	case algorithm.ResidentialTotalPopulation:
		if e.Factor == "" {
			return fmt.Errorf("%s needs a factor", t)
		}
		f, err := direct(e.Factor)
		if err != nil {
			return err
		}
		id = pick(algorithm.PropertyResidentialTotalPopulationExpenseFactor, algorithm.PropertyResidentialTotalPopulationIncomeFactor)
		value = model.Float32(f)

	case algorithm.ResidentialWealthGroupPopulation:
		if len(e.Factors) != 3 {
			return fmt.Errorf("%s needs three factors, got %d", t, len(e.Factors))
		}
		factors := make([]float32, 0, 3)
		for _, s := range e.Factors {
			f, err := direct(s)
			if err != nil {
				return err
			}
			factors = append(factors, f)
		}
		id = pick(algorithm.PropertyResidentialWealthGroupPopulationExpenseFactors, algorithm.PropertyResidentialWealthGroupPopulationIncomeFactors)
		value = model.Float32Array(factors...)

	case algorithm.Tourism:
		if e.Tourism == nil {
			return fmt.Errorf("%s needs tourism factors", t)
		}
		num, den, err := Rational(e.Tourism.Factor)
		if err != nil {
			return err
		}
		id = pick(algorithm.PropertyTourismExpenseFactors, algorithm.PropertyTourismIncomeFactors)
		value = model.Sint64Array(num, den, e.Tourism.Geopolitics)
	}

	if prev, ok := c.props[id]; ok {
		if !sameValue(prev, value) {
			return fmt.Errorf("direct encoding holds one %s factor set per building, got conflicting values", t)
		}
		return nil
	}
	c.props[id] = value
	return nil
}

func sameValue(a, b model.PropertyValue) bool {
	if a.Kind != b.Kind || a.Count() != b.Count() {
		return false
	}
	for i := range a.Uint32s {
		if a.Uint32s[i] != b.Uint32s[i] {
			return false
		}
	}
	for i := range a.Sint64s {
		if a.Sint64s[i] != b.Sint64s[i] {
			return false
		}
	}
	for i := range a.Float32s {
		if a.Float32s[i] != b.Float32s[i] {
			return false
		}
	}
	return true
}
