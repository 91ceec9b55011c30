package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

// TestParseCubeID tests cube identifier parsing
func TestParseCubeID(t *testing.T) {
	tests := []struct {
		input    string
		expected CubeParts
		hasError bool
	}{
		{"health.sotkanet.population", CubeParts{"health", "sotkanet", "population", "latest"}, false},
		{"health.sotkanet.population.2020", CubeParts{"health", "sotkanet", "population", "2020"}, false},
		{"health.population", CubeParts{}, true},
		{"health..population", CubeParts{}, true},
		{"a.b.c.d.e", CubeParts{}, true},
		{"health.sotkanet.pop;drop", CubeParts{}, true},
		{"health.so tkanet.population", CubeParts{}, true},
	}

	for _, test := range tests {
		result, err := ParseCubeID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %+v, got %+v", test.expected, result)
		}
	}
}

// TestIntegrityErrors tests the integrity error chain
func TestIntegrityErrors(t *testing.T) {
	err := NewUnknownParentError("region", "finland", "europe")
	if !IsIntegrityError(err) {
		t.Errorf("Expected %v to be an integrity error", err)
	}
	if IsNotFoundError(err) {
		t.Errorf("Did not expect %v to be a not-found error", err)
	}
	if !IsIntegrityError(NewNodeNotFoundError("region", "mars")) {
		t.Error("Expected node lookup failure to be an integrity error")
	}
}

// TestCubeTables tests derived table names
func TestCubeTables(t *testing.T) {
	c, err := ParseCubeID("Health.sotkanet.population.2020")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := c.TreeTable(); got != "health_sotkanet_tree_2020" {
		t.Errorf("TreeTable() = %s", got)
	}
	if got := c.MetaTable(); got != "health_sotkanet_meta_2020" {
		t.Errorf("MetaTable() = %s", got)
	}
	if got := c.FactTable(); got != "health_sotkanet_fact_population_2020" {
		t.Errorf("FactTable() = %s", got)
	}
}
