package testutil

// WithTypicalPersons adds six persons spread over three modules.
//
//	Alex Yeoh          CS2101-T05 CS2103-T01
//	Bernice Yu         CS2103-T01
//	Charlotte Oliveiro CS2103-T02
//	David Li           CS2040-T11 CS2101-T05
//	Irfan Ibrahim      CS2040-T11
//	Roy Balakrishnan   (no groups)
func (b *Builder) WithTypicalPersons() *Builder {
	return b.
		WithPerson("Alex Yeoh", Groups("CS2103-T01", "CS2101-T05")).
		WithPerson("Bernice Yu", Groups("CS2103-T01")).
		WithPerson("Charlotte Oliveiro", Groups("CS2103-T02")).
		WithPerson("David Li", Groups("CS2040-T11", "CS2101-T05")).
		WithPerson("Irfan Ibrahim", Groups("CS2040-T11")).
		WithPerson("Roy Balakrishnan")
}

// TypicalModuleCounts is the module index of WithTypicalPersons.
func TypicalModuleCounts() map[string]map[string]int {
	return map[string]map[string]int{
		"CS2103": {"T01": 2, "T02": 1},
		"CS2101": {"T05": 2},
		"CS2040": {"T11": 2},
	}
}
