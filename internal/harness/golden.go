package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/arech/yacce/internal/cdb"
)

// RunWithGolden executes a scenario, checks its expect clause, and compares
// the reconstructed compile database against testdata/golden/{name}.golden.
// With link_commands set, the link database is compared against
// {name}_links.golden as well.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if err := Check(scenario, result); err != nil {
		return err
	}
	if scenario.Expect.Error != "" {
		// Error scenarios produce no databases to compare.
		return nil
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	compileJSON, err := cdb.Marshal(cdb.CompileEntries(scenario.Cwd, result.Parsed.Compiles, scenario.SaveDuration))
	if err != nil {
		return err
	}
	g.Assert(t, scenario.Name, compileJSON)

	if scenario.LinkCommands {
		linkJSON, err := cdb.Marshal(cdb.LinkEntries(scenario.Cwd, result.Parsed.Links, scenario.SaveDuration))
		if err != nil {
			return err
		}
		g.Assert(t, scenario.Name+"_links", linkJSON)
	}

	return nil
}
