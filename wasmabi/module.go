package wasmabi

// ModuleLayout carries the entity counts a VMContext layout calculator
// needs: how many memories/tables/globals/functions/tags are imported vs.
// locally defined. It is deliberately smaller than a full parsed module —
// the parser/validator is an external collaborator (see SCOPE) and this is
// the only shape of "module" the core actually requires.
type ModuleLayout struct {
	ImportedFunctionCount Index
	ImportedMemoryCount   Index
	ImportedTableCount    Index
	ImportedGlobalCount   Index

	LocalFunctionCount Index
	LocalMemoryCount   Index
	LocalTableCount    Index
	LocalGlobalCount   Index

	TypeCount Index
}

// TotalMemories is the number of memory slots (imported + local) a
// VMContext instance must reserve.
func (m *ModuleLayout) TotalMemories() Index {
	return m.ImportedMemoryCount + m.LocalMemoryCount
}

// TotalTables is the number of table slots (imported + local).
func (m *ModuleLayout) TotalTables() Index {
	return m.ImportedTableCount + m.LocalTableCount
}

// TotalGlobals is the number of global slots (imported + local).
func (m *ModuleLayout) TotalGlobals() Index {
	return m.ImportedGlobalCount + m.LocalGlobalCount
}
